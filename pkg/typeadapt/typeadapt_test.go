package typeadapt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ckern-go/ckern/pkg/ckernerr"
	"github.com/ckern-go/ckern/pkg/typeadapt"
)

type obj struct {
	key     []byte
	deleted bool
}

type keys struct{}

func (keys) GetBinaryKey(o *obj) []byte { return o.key }

type deletingKeys struct{}

func (deletingKeys) GetBinaryKey(o *obj) []byte { return o.key }
func (deletingKeys) Delete(o *obj) error {
	o.deleted = true
	return nil
}

var errBoom = errors.New("boom")

type failingLifetime struct{}

func (failingLifetime) Delete(o *obj) error { return errBoom }

func TestCompareBytesKeyDerivesComparators(t *testing.T) {
	a := typeadapt.CompareBytesKey[*obj](keys{})

	x := &obj{key: []byte("aaa")}
	y := &obj{key: []byte("bbb")}

	require.Negative(t, a.CompareObj(x, y))
	require.Positive(t, a.CompareObj(y, x))
	require.Zero(t, a.CompareObj(x, x))

	require.Negative(t, a.CompareKeyObj([]byte("aaa"), y))
	require.Zero(t, a.CompareKeyObj([]byte("aaa"), x))

	require.Equal(t, x.key, a.GetBinaryKey(x))
}

func TestLifetimeNoCapability(t *testing.T) {
	o := &obj{key: []byte("x")}

	require.False(t, typeadapt.HasLifetime[*obj](keys{}))
	require.NoError(t, typeadapt.Lifetime[*obj](keys{}, o))
	require.False(t, o.deleted)
}

func TestLifetimeWithCapability(t *testing.T) {
	o := &obj{key: []byte("x")}

	require.True(t, typeadapt.HasLifetime[*obj](deletingKeys{}))
	require.NoError(t, typeadapt.Lifetime[*obj](deletingKeys{}, o))
	require.True(t, o.deleted)
}

func TestLifetimePropagatesError(t *testing.T) {
	o := &obj{key: []byte("x")}

	err := typeadapt.Lifetime[*obj](failingLifetime{}, o)
	require.ErrorIs(t, err, errBoom)
}

func TestNewMemberValidRange(t *testing.T) {
	m, err := typeadapt.NewMember("elem", 0)
	require.NoError(t, err)
	require.Equal(t, "elem", m.Name)
	require.Equal(t, 0, m.Offset)

	m, err = typeadapt.NewMember("elem", 1<<16-1)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
}

func TestNewMemberRejectsOutOfRange(t *testing.T) {
	_, err := typeadapt.NewMember("elem", -1)
	require.ErrorIs(t, err, ckernerr.ErrInvalidArgument)

	_, err = typeadapt.NewMember("elem", 1<<16)
	require.ErrorIs(t, err, ckernerr.ErrInvalidArgument)
}

func TestMemberValidateCatchesHandBuilt(t *testing.T) {
	m := typeadapt.Member{Name: "bad", Offset: 1 << 20}
	require.ErrorIs(t, m.Validate(), ckernerr.ErrInvalidArgument)
}

func TestColorConstants(t *testing.T) {
	require.True(t, bool(typeadapt.Red))
	require.False(t, bool(typeadapt.Black))
}
