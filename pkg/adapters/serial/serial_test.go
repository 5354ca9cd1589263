package serial_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	bserial "github.com/aretw0/bifrost/pkg/adapters/serial"
	"github.com/aretw0/bifrost/pkg/bridge"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"
)

type fakePort struct {
	bytes.Buffer
	closed int
}

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

func TestPortConfig(t *testing.T) {
	pc := bserial.PortConfig(domain.ChannelConfig{Name: "COM4", Baud: 115200})
	assert.Equal(t, "COM4", pc.Name)
	assert.Equal(t, 115200, pc.Baud)
	assert.Equal(t, 50*time.Millisecond, pc.ReadTimeout)
	assert.Equal(t, byte(8), pc.Size)
	assert.Equal(t, serial.ParityNone, pc.Parity)
	assert.Equal(t, serial.Stop1, pc.StopBits)

	assert.Equal(t, domain.DefaultBaud, bserial.PortConfig(domain.ChannelConfig{Name: "COM4"}).Baud)
}

func TestOpener_Open(t *testing.T) {
	port := &fakePort{}
	var got *serial.Config
	opener := bserial.New(bserial.WithPortOpener(func(cfg *serial.Config) (io.ReadWriteCloser, error) {
		got = cfg
		return port, nil
	}))

	ch, err := opener.Open(context.Background(), domain.ChannelConfig{Name: "/dev/ttyACM0", Baud: 9600})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", got.Name)

	_, err = ch.Write([]byte("2+2\n"))
	require.NoError(t, err)
	assert.Equal(t, "2+2\n", port.String())

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Equal(t, 1, port.closed, "close is idempotent")
}

// idlePort answers with (0, io.EOF) for each idle read before the reply, like a
// POSIX port whose read timeout elapsed.
type idlePort struct {
	idle  int
	reply *bytes.Reader
}

func (p *idlePort) Read(b []byte) (int, error) {
	if p.idle > 0 {
		p.idle--
		return 0, io.EOF
	}
	return p.reply.Read(b)
}

func (p *idlePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *idlePort) Close() error                { return nil }

func TestOpener_IdleReadIsNotEndOfStream(t *testing.T) {
	port := &idlePort{idle: 2, reply: bytes.NewReader([]byte("42\n"))}
	opener := bserial.New(bserial.WithPortOpener(func(*serial.Config) (io.ReadWriteCloser, error) {
		return port, nil
	}))

	ch, err := opener.Open(context.Background(), domain.ChannelConfig{Name: "/dev/ttyUSB0"})
	require.NoError(t, err)
	defer ch.Close()

	buf := make([]byte, 8)
	n, err := ch.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)

	cfg := domain.ChannelConfig{
		Name: "/dev/ttyUSB0",
		Timeouts: domain.Timeouts{
			ReadInterval:      time.Millisecond,
			ReadTotalConstant: 500 * time.Millisecond,
		},
	}
	port.idle = 3
	port.reply.Reset([]byte("42\n"))
	value, err := bridge.New(opener).Evaluate(context.Background(), "6*7", cfg)
	require.NoError(t, err)
	assert.Equal(t, "42", value.Text)
}

func TestOpener_OpenError(t *testing.T) {
	boom := errors.New("access denied")
	opener := bserial.New(bserial.WithPortOpener(func(*serial.Config) (io.ReadWriteCloser, error) {
		return nil, boom
	}))

	_, err := opener.Open(context.Background(), domain.ChannelConfig{Name: "COM9"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "COM9")
}

func TestOpener_CanceledContext(t *testing.T) {
	called := false
	opener := bserial.New(bserial.WithPortOpener(func(*serial.Config) (io.ReadWriteCloser, error) {
		called = true
		return &fakePort{}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := opener.Open(ctx, domain.ChannelConfig{Name: "COM4"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
