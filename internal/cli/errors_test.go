package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veilsec/veil"
)

func TestEngineError_DerivesCodeFromKind(t *testing.T) {
	cases := []struct {
		kind veil.ErrorKind
		want int
	}{
		{veil.KindParse, exitKindBase + int(veil.KindParse)},
		{veil.KindCatalog, exitKindBase + int(veil.KindCatalog)},
		{veil.KindStaleness, exitKindBase + int(veil.KindStaleness)},
		{veil.KindSchema, exitKindBase + int(veil.KindSchema)},
	}
	for _, c := range cases {
		err := &veil.Error{Kind: c.kind, Msg: "boom"}
		exitErr := EngineError("doing a thing", err)
		assert.Equal(t, c.want, exitErr.Code)
		assert.ErrorIs(t, exitErr, err)
	}
}

func TestEngineError_FallsBackToGeneralWithoutKind(t *testing.T) {
	exitErr := EngineError("doing a thing", errors.New("plain failure"))
	assert.Equal(t, ExitGeneral, exitErr.Code)
}
