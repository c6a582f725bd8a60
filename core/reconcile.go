package core

import (
	"context"

	"github.com/pkg/errors"
)

// Reconcile applies an optimistic local patch, performs the remote call and then
// always reloads the canonical state, whatever the outcome of the remote call.
// The remote error wins over the reload error.
func Reconcile(
	ctx context.Context,
	patch func(),
	remote func(context.Context) error,
	reload func(context.Context) error,
) error {
	if patch != nil {
		patch()
	}
	remoteErr := remote(ctx)

	var reloadErr error
	if reload != nil {
		reloadErr = reload(ctx)
	}

	if remoteErr != nil {
		return remoteErr
	}
	if reloadErr != nil {
		return errors.Wrap(reloadErr, "reloading")
	}
	return nil
}
