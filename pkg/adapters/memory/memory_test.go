package memory_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aretw0/bifrost/pkg/adapters/memory"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func fastChannel() domain.ChannelConfig {
	return domain.ChannelConfig{
		Name:     "mem",
		Baud:     9600,
		Timeouts: domain.Timeouts{ReadInterval: time.Millisecond, ReadTotalConstant: 20 * time.Millisecond},
	}
}

func TestDevice_AnswersPerLine(t *testing.T) {
	dev := memory.NewDevice(memory.Replies("4", "9"))
	ch, err := dev.Open(context.Background(), fastChannel())
	require.NoError(t, err)
	defer ch.Close()

	_, err = io.WriteString(ch, "2+2\n3*3\n")
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := ch.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "49", string(buf[:n]))
	assert.Equal(t, []string{"2+2", "3*3"}, dev.Requests())

	n, err = ch.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n, "an idle channel times out with no data")
}

func TestDevice_Latency(t *testing.T) {
	dev := memory.NewDevice(memory.Replies("1"), memory.WithLatency(10*time.Millisecond))
	ch, err := dev.Open(context.Background(), fastChannel())
	require.NoError(t, err)

	_, err = io.WriteString(ch, "1\n")
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, _ := ch.Read(buf)
	assert.Zero(t, n, "reply is not ready within one interval")

	assert.Eventually(t, func() bool {
		n, _ = ch.Read(buf)
		return n == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Equal(t, 1, dev.Closes())
}

func TestDevice_OpenError(t *testing.T) {
	boom := errors.New("port busy")
	dev := memory.NewDevice(nil, memory.WithOpenError(boom))
	_, err := dev.Open(context.Background(), fastChannel())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, dev.Opens())
}

func TestReplies_RepeatsLast(t *testing.T) {
	r := memory.Replies("a", "b")
	assert.Equal(t, "a", r(""))
	assert.Equal(t, "b", r(""))
	assert.Equal(t, "b", r(""))
	assert.Equal(t, "", memory.Replies()(""))
}
