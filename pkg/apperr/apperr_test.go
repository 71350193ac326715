package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindConflict, KindOf(Conflict("duplicate")))
	assert.Equal(t, KindConfig, KindOf(Config("unset")))
	assert.Equal(t, KindStorage, KindOf(Storagef(errors.New("io"), "upload failed")))

	// Unclassified errors default to store.
	assert.Equal(t, KindStore, KindOf(errors.New("plain")))
}

func TestKindOfWrapped(t *testing.T) {
	inner := Conflict("duplicate")
	wrapped := fmt.Errorf("insert: %w", inner)
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestMessageHidesCause(t *testing.T) {
	err := Storef(errors.New("SQLSTATE 57P01 internal detail"), "failed to insert video")
	assert.Equal(t, "failed to insert video", Message(err))
	assert.Contains(t, err.Error(), "internal detail", "full text keeps the cause for logs")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(KindStore, "db", cause)
	assert.True(t, errors.Is(err, cause))
}
