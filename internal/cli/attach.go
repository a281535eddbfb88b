package cli

import (
	"context"
	"fmt"
)

// Attach registers a pending attachment on an order and prints the upload
// URL. The file itself goes straight to object storage; the CLI never
// touches its bytes.
func (a *App) Attach(ctx context.Context) error {
	orderID, err := GetSimpleText(a.reader, "Order ID", a.out)
	if err != nil {
		return err
	}
	fileName, err := GetSimpleText(a.reader, "File name", a.out)
	if err != nil {
		return err
	}

	task, err := a.attachments.RequestUpload(ctx, orderID, fileName, nil, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Attachment %s registered\nUpload URL (valid 15 minutes):\n%s\n", task.AttachmentID, task.URL)
	return nil
}

// ConfirmUpload marks an attachment as transferred.
func (a *App) ConfirmUpload(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Attachment ID", a.out)
	if err != nil {
		return err
	}
	if err := a.attachments.ConfirmUpload(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Upload confirmed")
	return nil
}

// Download prints a presigned GET URL for an uploaded attachment.
func (a *App) Download(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Attachment ID", a.out)
	if err != nil {
		return err
	}

	att, url, err := a.attachments.GetDownloadURL(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\nDownload URL (valid 15 minutes):\n%s\n", att.FileName, url)
	return nil
}

// ListAttachments prints the attachments registered on an order.
func (a *App) ListAttachments(ctx context.Context) error {
	orderID, err := GetSimpleText(a.reader, "Order ID", a.out)
	if err != nil {
		return err
	}

	list, err := a.attachments.ListForOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No attachments")
		return nil
	}
	for _, att := range list {
		fmt.Fprintf(a.out, "%s  %-10s %s\n", att.ID, att.UploadStatus, att.FileName)
	}
	return nil
}
