package safe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNilMatIsEmpty(t *testing.T) {
	var m *Mat
	assert.True(t, m.Empty())
	assert.Zero(t, m.Rows())
	assert.Zero(t, m.Cols())
	assert.Zero(t, m.Channels())
	assert.Nil(t, m.Bytes())
	assert.False(t, m.SameSize(m))
	m.Close()

	_, err := m.Clone()
	assert.Error(t, err)
}

func TestFromBytesCopiesData(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	m, err := FromBytes(2, 3, gocv.MatTypeCV8UC1, data)
	require.NoError(t, err)
	defer m.Close()

	data[0] = 99
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, m.Bytes())
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := FromBytes(2, 2, gocv.MatTypeCV8UC3, make([]byte, 4))
	assert.Error(t, err)

	_, err = FromBytes(0, 2, gocv.MatTypeCV8UC1, nil)
	assert.Error(t, err)
}

func TestCloseInvalidates(t *testing.T) {
	m, err := NewZeros(4, 5, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Channels())
	assert.Equal(t, make([]byte, 60), m.Bytes())

	m.Close()
	assert.True(t, m.Empty())
	m.Close()
}

func TestCloneIsIndependent(t *testing.T) {
	m, err := FromBytes(1, 2, gocv.MatTypeCV8UC1, []byte{10, 20})
	require.NoError(t, err)
	defer m.Close()

	c, err := m.Clone()
	require.NoError(t, err)
	m.Close()

	assert.Equal(t, []byte{10, 20}, c.Bytes())
	assert.NotEqual(t, m.ID(), c.ID())
	c.Close()
}

func TestValidateSameSize(t *testing.T) {
	a, _ := NewZeros(3, 3, gocv.MatTypeCV8UC1)
	b, _ := NewZeros(3, 4, gocv.MatTypeCV8UC1)
	defer a.Close()
	defer b.Close()

	assert.NoError(t, ValidateSameSize(a, a, "test"))
	assert.ErrorContains(t, ValidateSameSize(a, b, "test"), "size mismatch")
	assert.Error(t, ValidateSameSize(a, nil, "test"))
}
