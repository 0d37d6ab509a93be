package input

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftRegisterProtocol(t *testing.T) {
	c := New()
	c.Press(0, ButtonA|ButtonStart|ButtonRight)

	// Latch then release the strobe.
	c.Write(1)
	c.Write(0)

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 1} // A B Select Start Up Down Left Right
	for i, bit := range want {
		assert.Equal(t, bit, c.Read(0), "bit %d", i)
	}
	assert.Equal(t, uint8(1), c.Read(0), "reads past the eighth return 1")
}

func TestStrobeHighParksOnA(t *testing.T) {
	c := New()
	c.Press(0, ButtonA)
	c.Write(1)
	assert.Equal(t, uint8(1), c.Read(0))
	assert.Equal(t, uint8(1), c.Read(0), "strobe high keeps returning button A")
}

func TestSecondPortIsIndependent(t *testing.T) {
	c := New()
	c.Press(1, ButtonB)
	c.Write(1)
	c.Write(0)
	assert.Equal(t, uint8(0), c.Read(0))
	assert.Equal(t, uint8(0), c.Read(1)) // A
	assert.Equal(t, uint8(1), c.Read(1)) // B
}

func TestClearDropsBothBitmaps(t *testing.T) {
	c := New()
	c.Press(0, 0xFF)
	c.Press(1, 0x0F)
	c.Clear()
	assert.Zero(t, c.Pressed(0))
	assert.Zero(t, c.Pressed(1))
}

func TestPollDriversCompose(t *testing.T) {
	c := New()
	drivers := []PollFunc{
		func(c *Controller) { c.Press(0, ButtonA) },
		func(c *Controller) { c.Press(0, ButtonStart) },
	}
	for _, poll := range drivers {
		poll(c)
	}
	assert.Equal(t, ButtonA|ButtonStart, c.Pressed(0))
}

func TestTCPDriverDeliversState(t *testing.T) {
	driver, err := NewTCPDriver("127.0.0.1:0")
	require.NoError(t, err)
	defer driver.Close()

	conn, err := net.Dial("tcp", driver.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{ButtonA | ButtonUp})
	require.NoError(t, err)

	c := New()
	require.Eventually(t, func() bool {
		c.Clear()
		driver.Poll(c)
		return c.Pressed(0) == ButtonA|ButtonUp
	}, time.Second, 5*time.Millisecond)
}
