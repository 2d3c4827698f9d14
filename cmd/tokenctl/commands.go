package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"keyring/internal/client"
	"keyring/internal/console/editor"
	"keyring/internal/console/row"
	"keyring/internal/platform/models"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, client.Invalid("id", "%q is not a token id", arg)
	}
	return id, nil
}

func newLoginCmd(g *globals) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			user, err := api.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "signed in as %s (group %s)\n", user.Username, user.Group)
			fmt.Println(api.AccessToken())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newListCmd(g *globals) *cobra.Command {
	var (
		page, size   int
		keyword, key string
		secrets      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search your tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var list []*models.Token
			if keyword != "" || key != "" {
				list, err = a.api.SearchTokens(cmd.Context(), keyword, key)
			} else {
				list, err = a.api.ListTokens(cmd.Context(), page, size)
			}
			if err != nil {
				return err
			}
			return printTokens(os.Stdout, g.output, a.session.Flags(), list, secrets)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", 0, "page size (server default when 0)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "match token names containing this text")
	cmd.Flags().StringVar(&key, "key", "", "match keys starting with this prefix")
	cmd.Flags().BoolVar(&secrets, "secrets", false, "include the sk- secret column")
	return cmd
}

func newGetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			tok, err := a.api.GetToken(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printToken(os.Stdout, g.output, a.session.Flags(), tok)
		},
	}
}

// draftFlags maps command line flags onto editor patch fields.
type draftFlags struct {
	name         string
	quota        string
	unlimited    bool
	expires      string
	firstUse     int64
	models       string
	group        string
	subnet       string
	fixedContent string
	perRequest   bool
	count        int
	inMonths     int
	inDays       int
	inHours      int
	inMinutes    int
}

func (f *draftFlags) register(cmd *cobra.Command, create bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "token name")
	fs.StringVar(&f.quota, "quota", "", "remaining quota")
	fs.BoolVar(&f.unlimited, "unlimited", false, "ignore the quota")
	fs.StringVar(&f.expires, "expires", "", `fixed expiry time ("2006-01-02 15:04:05"), or -1 for never`)
	fs.Int64Var(&f.firstUse, "first-use-hours", 0, "expire this many hours after first use")
	fs.StringVar(&f.models, "models", "", "comma separated models; empty allows all")
	fs.StringVar(&f.group, "group", "", "billing group")
	fs.StringVar(&f.subnet, "subnet", "", "comma separated CIDRs allowed to use the key")
	fs.StringVar(&f.fixedContent, "fixed-content", "", "content appended to every request")
	fs.IntVar(&f.inMonths, "in-months", 0, "expire this many months from now")
	fs.IntVar(&f.inDays, "in-days", 0, "expire this many days from now")
	fs.IntVar(&f.inHours, "in-hours", 0, "expire this many hours from now")
	fs.IntVar(&f.inMinutes, "in-minutes", 0, "expire this many minutes from now")
	for _, quick := range []string{"in-months", "in-days", "in-hours", "in-minutes"} {
		cmd.MarkFlagsMutuallyExclusive("expires", "first-use-hours", quick)
	}
	if create {
		fs.BoolVar(&f.perRequest, "per-request", false, "bill per request instead of per token")
		fs.IntVar(&f.count, "count", 1, "number of tokens to create")
	}
}

func (f *draftFlags) patch(cmd *cobra.Command) map[string]interface{} {
	fs := cmd.Flags()
	values := map[string]interface{}{}
	set := func(flag, field string, value interface{}) {
		if fs.Changed(flag) {
			values[field] = value
		}
	}
	set("name", "name", f.name)
	set("quota", "remain_quota", f.quota)
	set("unlimited", "unlimited_quota", f.unlimited)
	set("models", "models", f.models)
	set("group", "group", f.group)
	set("subnet", "subnet", f.subnet)
	set("fixed-content", "fixed_content", f.fixedContent)
	set("per-request", "billing_enabled", f.perRequest)
	set("count", "create_count", f.count)
	if fs.Changed("expires") {
		values["expiry_mode"] = models.ExpiryModeFixed
		values["expired_time"] = f.expires
	}
	if fs.Changed("first-use-hours") {
		values["expiry_mode"] = models.ExpiryModeFirstUse
		values["duration"] = f.firstUse
	}
	return values
}

func (f *draftFlags) quickExpiry(cmd *cobra.Command, ed *editor.Editor) {
	fs := cmd.Flags()
	if fs.Changed("in-months") || fs.Changed("in-days") || fs.Changed("in-hours") || fs.Changed("in-minutes") {
		ed.SetExpiry(f.inMonths, f.inDays, f.inHours, f.inMinutes)
	}
}

func runEditor(cmd *cobra.Command, g *globals, id int64, flags *draftFlags) error {
	ctx := cmd.Context()
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ed := editor.New(a.api, a.session, a.notify)
	if err := ed.Open(ctx, id); err != nil {
		return err
	}
	if err := ed.Patch(flags.patch(cmd)); err != nil {
		ed.Cancel()
		return err
	}
	flags.quickExpiry(cmd, ed)

	result, err := ed.Submit(ctx)
	if len(result.Created) > 0 {
		if perr := printTokens(os.Stdout, g.output, a.session.Flags(), result.Created, true); perr != nil {
			return perr
		}
	}
	return err
}

func newCreateCmd(g *globals) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one or more tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, g, 0, flags)
		},
	}
	flags.register(cmd, true)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newEditCmd(g *globals) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an existing token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runEditor(cmd, g, id, flags)
		},
	}
	flags.register(cmd, false)
	return cmd
}

// openRow loads a token and wraps it with the session's flags.
func openRow(cmd *cobra.Command, g *globals, arg string) (*row.Row, *app, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, nil, err
	}
	a, err := g.open(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	tok, err := a.api.GetToken(cmd.Context(), id)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	r := row.New(*tok, a.api, a.session.Flags(), a.notify, a.clip)
	r.OnDelete = a.api.DeleteToken
	return r, a, nil
}

func newToggleCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Enable a token, or disable it if enabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, a, err := openRow(cmd, g, args[0])
			if err != nil {
				return err
			}
			defer a.close()

			if err := r.ToggleStatus(cmd.Context()); err != nil {
				return err
			}
			a.notify.Success(fmt.Sprintf("%s is now %s", r.Record().Name, r.Tooltip()))
			return nil
		},
	}
}

func newBillingCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "billing ID per-token|per-request",
		Short:     "Change how a token is billed",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"per-token", "per-request"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var perRequest bool
			switch args[1] {
			case "per-request":
				perRequest = true
			case "per-token":
			default:
				return client.Invalid("strategy", "expected per-token or per-request, got %q", args[1])
			}

			r, a, err := openRow(cmd, g, args[0])
			if err != nil {
				return err
			}
			defer a.close()
			return r.SetBillingStrategy(cmd.Context(), perRequest)
		},
	}
}

func newDeleteCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a token after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, a, err := openRow(cmd, g, args[0])
			if err != nil {
				return err
			}
			defer a.close()

			r.RequestDelete()
			if !yes && !confirm(fmt.Sprintf("Delete token %q? [y/N] ", r.Record().Name)) {
				r.CancelDelete()
				return nil
			}
			if err := r.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			a.notify.Success("Token deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func newCopyCmd(g *globals) *cobra.Command {
	var secret bool
	cmd := &cobra.Command{
		Use:   "copy ID",
		Short: "Copy a token's name, or its secret with --secret, to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, a, err := openRow(cmd, g, args[0])
			if err != nil {
				return err
			}
			defer a.close()
			if secret {
				return r.CopySecret()
			}
			return r.CopyName()
		},
	}
	cmd.Flags().BoolVar(&secret, "secret", false, "copy sk-<key> instead of the name")
	return cmd
}

func newStatusCmd(g *globals) *cobra.Command {
	var start bool
	cmd := &cobra.Command{
		Use:   "status KEY",
		Short: "Show the credit summary of an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			if start {
				_, msg, err := api.UseFirstTime(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stderr, msg)
			}
			summary, err := api.TokenStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			expires := row.NeverExpires
			if summary.ExpiresAt > 0 {
				expires = row.FormatTime(summary.ExpiresAt/1000, time.Local)
			}
			fmt.Printf("available: %s\ngranted:   %s\nexpires:   %s\n",
				row.RenderQuota(summary.TotalAvailable), row.RenderQuota(summary.TotalGranted), expires)
			return nil
		},
	}
	cmd.Flags().BoolVar(&start, "start", false, "start the clock of a first-use key before reporting")
	return cmd
}
