package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coregx/ntfy"
	"github.com/coregx/ntfy/model"
)

type publishFlags struct {
	message     string
	title       string
	tags        []string
	priority    int
	actions     []string
	click       string
	attach      string
	markdown    bool
	icon        string
	filename    string
	delay       string
	email       string
	call        string
	noCache     bool
	noFirebase  bool
	unifiedPush bool
	headers     bool
}

// request builds the publish request from the flags.
func (f *publishFlags) request() (*model.PublishRequest, error) {
	req := &model.PublishRequest{
		Message:         f.message,
		Title:           f.title,
		Tags:            f.tags,
		Priority:        f.priority,
		Click:           f.click,
		Attach:          f.attach,
		Markdown:        f.markdown,
		Icon:            f.icon,
		Filename:        f.filename,
		Delay:           f.delay,
		Email:           f.email,
		Call:            f.call,
		DisableCache:    f.noCache,
		DisableFirebase: f.noFirebase,
		UnifiedPush:     f.unifiedPush,
	}
	if f.headers {
		req.Encoding = model.EncodingHeaders
	}
	for _, raw := range f.actions {
		action, err := model.ParseActionJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --action %s: %w", raw, err)
		}
		req.Actions = append(req.Actions, action)
	}
	return req, nil
}

// newPublishCommand constructs the `publish` command.
func newPublishCommand(a *app) *cobra.Command {
	var f publishFlags

	cmd := &cobra.Command{
		Use:   "publish <server> <topic> [body|-]",
		Short: "Publish message to topic on a remote ntfy server",
		Long: `Publish message to topic on a remote ntfy server.

The optional body is sent as the raw request payload; use - to read it from
stdin. When both a body and --message are given, the body is uploaded as an
attachment and --message becomes the notification text.`,
		Example: `  ntfy publish home alerts --message "Hello visit my new website" \
    --action '{"action": "view", "label": "Open website", "url": "https://example.com/", "clear": true}'

  grep -i error app.log | ntfy publish home alerts - --filename errors.txt \
    --title error --message "Errors summarised" --tag warning --priority 5`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.newRegistry()
			if err != nil {
				return err
			}
			client, err := a.client(reg, args[0])
			if err != nil {
				return err
			}

			req, err := f.request()
			if err != nil {
				return err
			}
			if len(args) == 3 {
				body, err := readBody(cmd.InOrStdin(), args[2])
				if err != nil {
					return err
				}
				req.Body = body
			}

			resp, err := client.Publish(cmd.Context(), args[1], req)
			if err != nil {
				return err
			}
			ack, err := resp.Wait()
			if err != nil {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, err)
				var pubErr *ntfy.PublishError
				if errors.As(err, &pubErr) && pubErr.ServerCode != 0 {
					_, _ = fmt.Fprintf(out, "[%d] %s\n", pubErr.ServerCode, pubErr.ServerMessage)
				}
				return errReported
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Message successful published (%s)\n", ack.ID)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.message, "message", "", "Main body of the message as shown in the notification")
	fl.StringVar(&f.title, "title", "", "Message title")
	fl.StringArrayVar(&f.tags, "tag", nil, "Message tag (repeatable)")
	fl.IntVar(&f.priority, "priority", 0, "Message priority (1 (low) till 5 (high))")
	fl.StringArrayVar(&f.actions, "action", nil, `Message action in JSON (repeatable), e.g. '{"action": "view", "label": "Open portal", "url": "https://home.nest.com/", "clear": true}'`)
	fl.StringVar(&f.click, "click", "", "URL to open when notification is clicked")
	fl.StringVar(&f.attach, "attach", "", "URL to send as an attachment, as an alternative to uploading a body")
	fl.BoolVar(&f.markdown, "markdown", false, "Enable Markdown formatting in the notification body")
	fl.StringVar(&f.icon, "icon", "", "URL to use as notification icon")
	fl.StringVar(&f.filename, "filename", "", "Attachment filename, as it appears in the client")
	fl.StringVar(&f.delay, "delay", "", "Timestamp or duration for delayed delivery")
	fl.StringVar(&f.email, "email", "", "E-mail address for e-mail notifications")
	fl.StringVar(&f.call, "call", "", "Phone number for phone calls")
	fl.BoolVar(&f.noCache, "no-cache", false, "Do not cache the message on the server")
	fl.BoolVar(&f.noFirebase, "no-firebase", false, "Do not forward the message to Firebase")
	fl.BoolVar(&f.unifiedPush, "unified-push", false, "UnifiedPush publish option, only to be used by UnifiedPush apps")
	fl.BoolVar(&f.headers, "headers", false, "Send metadata as X-* headers instead of a JSON document")

	return cmd
}

// client resolves a server name, listing the configured servers on failure.
func (a *app) client(reg *ntfy.Registry, server string) (*ntfy.Client, error) {
	client, err := reg.Client(server)
	if err != nil {
		return nil, fmt.Errorf("%w\n\nAvailable:\n%s", err, reg.Describe())
	}
	return client, nil
}

func readBody(stdin io.Reader, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return b, nil
}
