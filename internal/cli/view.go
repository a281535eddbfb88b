package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/stringshare/ordervault/internal/common"
)

// View decrypts an order for the logged-in user and prints the summary
// together with the signature report.
func (a *App) View(ctx context.Context) error {
	user, password, err := a.login(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	orderID, err := GetSimpleText(a.reader, "Order ID", a.out)
	if err != nil {
		return err
	}

	view, err := a.orders.View(ctx, user.ID, orderID, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Order #%d [%s]\n\n", view.Order.Number, view.Order.Status)
	fmt.Fprintf(a.out, "%s\n", view.Summary)

	roles := make([]string, 0, len(view.Signatures))
	for role := range view.Signatures {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	fmt.Fprintln(a.out, "Signatures:")
	for _, role := range roles {
		mark := "INVALID"
		if view.Signatures[role] {
			mark = "ok"
		}
		fmt.Fprintf(a.out, "  %-10s %s\n", role, mark)
	}
	return nil
}
