package commands

import (
	"encoding/json"
	"errors"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/models"
	"github.com/dotcommander/nowpanel/internal/notify"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/store"
)

// NewPushCmd creates the push command group for browser web push.
func NewPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Manage web push subscriptions for resurfaced-task alerts",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newPushKeysCmd())
	cmd.AddCommand(newPushSubscribeCmd())
	cmd.AddCommand(newPushListCmd())
	cmd.AddCommand(newPushRemoveCmd())
	cmd.AddCommand(newPushTestCmd())
	return cmd
}

func newPushKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate a VAPID key pair for notifications.web_push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			private, public, err := webpush.GenerateVAPIDKeys()
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				VAPIDPublicKey  string `json:"vapid_public_key"`
				VAPIDPrivateKey string `json:"vapid_private_key"`
			}
			return output.PrintSuccess(resp{VAPIDPublicKey: public, VAPIDPrivateKey: private})
		},
	}
}

// parseSubscription accepts either explicit flags or a browser
// PushSubscription JSON document.
func parseSubscription(raw, endpoint, p256dh, auth string) (webpush.Subscription, error) {
	var sub webpush.Subscription
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return sub, &models.InvalidInputError{Field: "json", Value: raw, Hint: "pass PushSubscription.toJSON() output"}
		}
	} else {
		sub = webpush.Subscription{Endpoint: endpoint, Keys: webpush.Keys{P256dh: p256dh, Auth: auth}}
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return sub, errors.New("subscription needs endpoint, p256dh and auth")
	}
	return sub, nil
}

func newPushSubscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Register a browser push endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("json")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			p256dh, _ := cmd.Flags().GetString("p256dh")
			auth, _ := cmd.Flags().GetString("auth")

			sub, err := parseSubscription(raw, endpoint, p256dh, auth)
			if err != nil {
				return cmdErr(err)
			}
			if err := withDB(func(db *DB) error {
				return store.SavePushSubscription(cmdContext(cmd), db, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth)
			}); err != nil {
				return err
			}
			return output.PrintSuccess(map[string]string{"endpoint": sub.Endpoint})
		},
	}
	cmd.Flags().String("json", "", "Subscription JSON from the browser")
	cmd.Flags().String("endpoint", "", "Push service endpoint URL")
	cmd.Flags().String("p256dh", "", "Client public key")
	cmd.Flags().String("auth", "", "Client auth secret")
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newPushListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered push endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var subs []store.PushSubscription
			if err := withDB(func(db *DB) error {
				var err error
				subs, err = store.ListPushSubscriptions(cmdContext(cmd), db)
				return err
			}); err != nil {
				return err
			}
			if subs == nil {
				subs = []store.PushSubscription{}
			}
			type resp struct {
				Subscriptions []store.PushSubscription `json:"subscriptions"`
			}
			return output.PrintSuccess(resp{Subscriptions: subs})
		},
	}
}

func newPushRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <endpoint>",
		Short: "Remove a push endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed bool
			if err := withDB(func(db *DB) error {
				var err error
				removed, err = store.DeletePushSubscription(cmdContext(cmd), db, args[0])
				return err
			}); err != nil {
				return err
			}
			type resp struct {
				Endpoint string `json:"endpoint"`
				Removed  bool   `json:"removed"`
			}
			return output.PrintSuccess(resp{Endpoint: args[0], Removed: removed})
		},
	}
	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newPushTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification to every endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.LoadSettings()
			if err != nil {
				return cmdErr(err)
			}
			wp := settings.Notifications.WebPush
			if !wp.Enabled() {
				return cmdErr(errors.New("notifications.web_push needs vapid_public_key and vapid_private_key; run `nowpanel push keys`"))
			}
			return withDB(func(db *DB) error {
				n, err := notify.NewWebPush(db, notify.WebPushConfig{
					PublicKey:  wp.VAPIDPublicKey,
					PrivateKey: wp.VAPIDPrivateKey,
					Subscriber: wp.Subscriber,
					TTL:        wp.TTL,
				}, nil)
				if err != nil {
					return err
				}
				if err := n.Notify(cmdContext(cmd), notify.Notification{Title: "nowpanel", Body: "Test notification"}); err != nil {
					return err
				}
				return output.PrintSuccess(map[string]bool{"sent": true})
			})
		},
	}
}
