package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyError_Is(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindNoOverlap, ErrNoOverlap},
		{KindInconsistentChunkWidth, ErrInconsistentChunkWidth},
		{KindUnsortedInput, ErrUnsortedInput},
		{KindInvalidInput, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("stage: %w", &KeyError{Kind: tt.kind, Detail: "x"})
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(err))
			for _, other := range tests {
				if other.kind != tt.kind {
					assert.NotErrorIs(t, err, other.sentinel)
				}
			}
		})
	}
}

func TestKeyError_Error(t *testing.T) {
	assert.Equal(t, "no_overlap: gap", (&KeyError{Kind: KindNoOverlap, Detail: "gap"}).Error())
	assert.Equal(t, "no_overlap [pixel 1,2]: gap", (&KeyError{Kind: KindNoOverlap, Key: "pixel 1,2", Detail: "gap"}).Error())
}

func TestWithKey(t *testing.T) {
	bare := &KeyError{Kind: KindUnsortedInput, Detail: "d"}
	keyed := withKey(bare, "k1")

	var ke *KeyError
	assert.True(t, errors.As(keyed, &ke))
	assert.Equal(t, "k1", ke.Key)
	assert.Empty(t, bare.Key, "original error must not be modified")

	assert.Same(t, keyed, withKey(keyed, "k2"))

	plain := withKey(errors.New("boom"), "k3")
	assert.Equal(t, "k3: boom", plain.Error())
	assert.Equal(t, ErrorKind(""), KindOf(plain))
}
