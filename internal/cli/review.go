package cli

import (
	"context"
	"fmt"

	"github.com/stringshare/ordervault/internal/common"
)

// Review applies the supervisor's decision to a pending order.
func (a *App) Review(ctx context.Context) error {
	user, password, err := a.login(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	orderID, err := GetSimpleText(a.reader, "Order ID", a.out)
	if err != nil {
		return err
	}
	decision, err := GetSimpleText(a.reader, "Decision (approve/reject)", a.out)
	if err != nil {
		return err
	}

	var accept bool
	switch decision {
	case "approve":
		accept = true
	case "reject":
	default:
		return fmt.Errorf("decision must be approve or reject, got %q", decision)
	}

	var purchaserID *string
	if accept {
		id, err := GetSimpleText(a.reader, "Purchaser user ID", a.out)
		if err != nil {
			return err
		}
		purchaserID = &id
	}

	order, err := a.orders.Review(ctx, user.ID, orderID, accept, purchaserID, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Order #%d is now %s\n", order.Number, order.Status)
	return nil
}
