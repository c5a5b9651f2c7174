package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartAndEndWithNoopProvider(t *testing.T) {
	ctx, span := Start(context.Background(), Tracer("test"), "op", RoundID(7), EvaluatorID("inspector-7"))
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { End(span, errors.New("boom")) })
}

func TestAttributes(t *testing.T) {
	assert.Equal(t, int64(7), RoundID(7).Value.AsInt64())
	assert.Equal(t, "roundwise.evaluator_id", string(EvaluatorID("x").Key))
}
