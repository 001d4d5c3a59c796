package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiDB/OxiWL/internal/apiclient"
	"github.com/parisxmas/OxiDB/OxiWL/internal/console"
	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
)

var printToken bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the whitelist API from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig("oxiwl-login")
		if err != nil {
			return err
		}
		api := apiclient.New(apiclient.Config{BaseURL: cfg.Console.APIURL, Timeout: cfg.Console.APITimeout})
		res, err := SignIn(cmd.Context(), api, surveyPrompter{}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if printToken {
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&printToken, "print-token", false, "print the bearer token after signing in")
}

// Prompter asks for the value of one form field. validate is consulted on
// every answer; a prompter keeps asking until it passes.
type Prompter interface {
	Ask(ctx context.Context, field form.FieldState, secret bool, validate func(string) error) (string, error)
}

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("login aborted")

// SignIn fills the sign-in form through p and submits it. Each answer is
// validated with the same rules as the console's sign-in page.
func SignIn(ctx context.Context, api *apiclient.Client, p Prompter, out io.Writer) (*apiclient.LoginResult, error) {
	f := console.LoginForm()
	for _, field := range f.Fields() {
		name := field.Name
		validate := func(v string) error { return form.Validate(field.Rule, v) }
		answer, err := p.Ask(ctx, field, name == "password", validate)
		if err != nil {
			return nil, err
		}
		if f, err = f.HandleInput(name, answer); err != nil {
			return nil, err
		}
	}
	if !f.Submittable() {
		return nil, errors.New("sign-in form is incomplete")
	}

	res, err := api.Login(ctx, f.Serialize())
	if err != nil {
		fmt.Fprintln(out, notify.Message(err))
		return nil, err
	}
	fmt.Fprintf(out, "Signed in as %s (%s)\n", res.User.Email, res.User.Role)
	return res, nil
}

type surveyPrompter struct{}

func (surveyPrompter) Ask(ctx context.Context, field form.FieldState, secret bool, validate func(string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var prompt survey.Prompt = &survey.Input{Message: field.Label + ":"}
	if secret {
		prompt = &survey.Password{Message: field.Label + ":"}
	}
	var out string
	err := survey.AskOne(prompt, &out, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return validate(s)
	}))
	if errors.Is(err, terminal.InterruptErr) {
		return "", ErrAborted
	}
	return out, err
}
