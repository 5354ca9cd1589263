/*
Package editor implements the expression buffer editing state machine.

An Editor owns the buffer text, the caret and the selection. Each Insert applies
one keypad token following a fixed sequence of rules:

 1. A buffer containing the "nan" error marker (any case) is cleared first.
 2. The token is resolved (the recall key yields the session's last result and
    is a no-op while there is none).
 3. An operator typed into an empty buffer gets a left operand: the last result,
    or "0" when there is none.
 4. A function name gets "()" appended and the caret lands inside the parentheses.
 5. Anything else replaces the selection; the caret follows the inserted text,
    except for the "()" literal where it lands inside.
 6. A one-character buffer forces the caret to 1; otherwise the pi constant puts
    the caret at the pre-insertion caret plus the inserted length.

The two corrections of rule 6 overlap and are applied in that order.
*/
package editor
