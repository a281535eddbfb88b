// Package cli implements the terminal front end: account registration,
// order submission and review, decrypted views, and attachment transfer.
// It talks to the service layer through narrow interfaces so commands can
// be tested against stubs.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stringshare/ordervault/internal/server/services"
)

type UserAPI interface {
	Register(ctx context.Context, email, fullName string, password []byte, roles []models.Role) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	ExportPrivateKey(ctx context.Context, userID string, password []byte) ([]byte, error)
}

type OrderAPI interface {
	Submit(ctx context.Context, senderID, supervisorID string, details *models.OrderDetails, password []byte) (*models.PurchaseOrder, error)
	Review(ctx context.Context, supervisorID, orderID string, accept bool, purchaserID *string, password []byte) (*models.PurchaseOrder, error)
	View(ctx context.Context, viewerID, orderID string, password []byte) (*services.OrderView, error)
}

type AttachmentAPI interface {
	RequestUpload(ctx context.Context, orderID, fileName string, fileKey, nonce []byte) (*services.AttachmentUploadTask, error)
	ConfirmUpload(ctx context.Context, attachmentID string) error
	GetDownloadURL(ctx context.Context, attachmentID string) (*models.Attachment, string, error)
	ListForOrder(ctx context.Context, orderID string) ([]*models.Attachment, error)
}

type App struct {
	users       UserAPI
	orders      OrderAPI
	attachments AttachmentAPI
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(users UserAPI, orders OrderAPI, attachments AttachmentAPI, in io.Reader, out io.Writer) *App {
	return &App{
		users:       users,
		orders:      orders,
		attachments: attachments,
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

// Run dispatches a single subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return fmt.Errorf("command required")
	}

	switch args[0] {
	case "register":
		return a.Register(ctx)
	case "submit":
		return a.Submit(ctx)
	case "review":
		return a.Review(ctx)
	case "view":
		return a.View(ctx)
	case "export-key":
		return a.ExportKey(ctx)
	case "attach":
		return a.Attach(ctx)
	case "confirm-upload":
		return a.ConfirmUpload(ctx)
	case "download":
		return a.Download(ctx)
	case "attachments":
		return a.ListAttachments(ctx)
	default:
		a.printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *App) printUsage() {
	fmt.Fprintln(a.out, `Usage: ordervault <command>

Commands:
  register        create an account with a fresh key pair
  submit          submit a purchase order for review
  review          approve or reject a pending order
  view            decrypt an order and verify its signatures
  export-key      download your private key (password required)
  attach          request an upload URL for an order attachment
  confirm-upload  mark an attachment as uploaded
  download        get a download URL for an attachment
  attachments     list attachments on an order`)
}

// login prompts for credentials and resolves them to a user record. The
// password is returned as well because key unlocking needs it again.
func (a *App) login(ctx context.Context) (*models.User, []byte, error) {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return nil, nil, err
	}
	password, err := GetPassword(a.out, "Password: ")
	if err != nil {
		return nil, nil, err
	}

	token, err := a.users.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	user, err := a.users.Authenticate(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return user, password, nil
}
