package cli

import (
	"context"
	"fmt"

	"github.com/stringshare/ordervault/internal/common"
)

// ExportKey prints the caller's private key in PEM form. The service
// re-checks the password against the protected blob before releasing it.
func (a *App) ExportKey(ctx context.Context) error {
	user, password, err := a.login(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pemBytes, err := a.users.ExportPrivateKey(ctx, user.ID, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s", pemBytes)
	return nil
}
