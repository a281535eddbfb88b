package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/server/models"
)

// Submit collects order details line by line and files the order. An empty
// item description ends the line-item loop.
func (a *App) Submit(ctx context.Context) error {
	user, password, err := a.login(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	supervisorID, err := GetSimpleText(a.reader, "Supervisor user ID", a.out)
	if err != nil {
		return err
	}
	supplier, err := GetSimpleText(a.reader, "Supplier", a.out)
	if err != nil {
		return err
	}

	details := &models.OrderDetails{Supplier: supplier}
	for {
		desc, err := GetSimpleText(a.reader, "Item description (empty line to finish)", a.out)
		if err != nil {
			return err
		}
		if desc == "" {
			break
		}
		qtyLine, err := GetSimpleText(a.reader, "Quantity", a.out)
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(qtyLine)
		if err != nil {
			return fmt.Errorf("invalid quantity: %q", qtyLine)
		}
		priceLine, err := GetSimpleText(a.reader, "Unit price", a.out)
		if err != nil {
			return err
		}
		price, err := strconv.ParseFloat(priceLine, 64)
		if err != nil {
			return fmt.Errorf("invalid unit price: %q", priceLine)
		}
		details.Items = append(details.Items, models.LineItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
		})
	}

	note, err := GetSimpleText(a.reader, "Note (optional)", a.out)
	if err != nil {
		return err
	}
	details.Note = note

	order, err := a.orders.Submit(ctx, user.ID, supervisorID, details, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Submitted order #%d (%s), total %.2f\n", order.Number, order.ID, details.Total())
	return nil
}
