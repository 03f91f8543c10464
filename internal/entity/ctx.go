package entity

import (
	"context"
	"errors"
)

type CtxKeyCaller struct{}

func SetCallerToContext(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, CtxKeyCaller{}, c)
}

func CallerFromContext(ctx context.Context) (Caller, error) {
	c, ok := ctx.Value(CtxKeyCaller{}).(Caller)
	if !ok {
		return Caller{}, errors.New("data type casting")
	}

	return c, nil
}
