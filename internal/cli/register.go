package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/server/models"
)

// Register creates an account. The password both logs the user in and
// protects their private key, so it is confirmed before anything is stored.
func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	fullName, err := GetSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	rolesLine, err := GetSimpleText(a.reader, "Roles (comma-separated: sender, supervisor, purchaser)", a.out)
	if err != nil {
		return err
	}

	var roles []models.Role
	for _, r := range strings.Split(rolesLine, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, models.Role(r))
		}
	}

	password, err := GetPassword(a.out, "Password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword(a.out, "Confirm password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return fmt.Errorf("passwords do not match")
	}

	user, err := a.users.Register(ctx, email, fullName, password, roles)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", user.Email, user.ID)
	return nil
}
