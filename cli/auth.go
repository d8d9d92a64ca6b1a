// ABOUTME: Session CLI commands
// ABOUTME: login, logout, whoami, refresh and profile against the backend auth endpoints
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/harperreed/mbgctl/models"
)

// LoginCommand signs in and stores the issued tokens.
func LoginCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *password == "" {
		p, err := readPassword(app)
		if err != nil {
			return err
		}
		*password = p
	}

	sess, err := app.Sessions.Login(context.Background(), *email, *password)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Logged in as %s\n", *email)
	if !sess.Token.Expiry.IsZero() {
		fmt.Fprintf(app.Out, "  Expires: %s\n", sess.Token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

func readPassword(app *App) (string, error) {
	if f, ok := app.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(app.Out, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(app.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// LogoutCommand ends the session and clears the stored tokens.
func LogoutCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.Sessions.Logout(); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	fmt.Fprintln(app.Out, "✓ Logged out")
	return nil
}

// WhoAmICommand prints the signed-in user.
func WhoAmICommand(app *App, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess := app.Sessions.Current()
	if !sess.HasTokens() {
		fmt.Fprintln(app.Out, "Not logged in")
		return nil
	}

	if u := sess.User; u != nil {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		fmt.Fprintf(app.Out, "Email:   %s\n", u.Email)
		if name != "" {
			fmt.Fprintf(app.Out, "Name:    %s\n", name)
		}
		if u.Role != "" {
			fmt.Fprintf(app.Out, "Role:    %s\n", u.Role)
		}
	}
	if !sess.Token.Expiry.IsZero() {
		fmt.Fprintf(app.Out, "Expires: %s\n", sess.Token.Expiry.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(app.Out, "Backend: %s\n", app.Client.BaseURL())
	fmt.Fprintf(app.Out, "State:   %s\n", app.Sync.State())
	return nil
}

// RefreshCommand trades the refresh token for a new pair.
func RefreshCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := app.Sessions.Refresh(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, "✓ Session refreshed")
	if !sess.Token.Expiry.IsZero() {
		fmt.Fprintf(app.Out, "  Expires: %s\n", sess.Token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

// ProfileCommand shows or changes the signed-in account.
func ProfileCommand(app *App, args []string) error {
	action := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("profile "+action, flag.ContinueOnError)
	firstName := fs.String("first-name", "", "First name (update only)")
	lastName := fs.String("last-name", "", "Last name (update only)")
	phone := fs.String("phone", "", "Phone number (update only)")
	address := fs.String("address", "", "Address (update only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()

	switch action {
	case "show":
		user, err := app.Sessions.Profile(ctx)
		if err != nil {
			return err
		}
		printUser(app, user)
		return nil

	case "update":
		user, err := app.Sessions.UpdateProfile(ctx, models.UpdateProfileRequest{
			FirstName: *firstName,
			LastName:  *lastName,
			Phone:     *phone,
			Address:   *address,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(app.Out, "✓ Profile updated")
		printUser(app, user)
		return nil

	case "password":
		secrets, err := readSecrets(app, "Current password", "New password", "Confirm new password")
		if err != nil {
			return err
		}
		if err := app.Sessions.ChangePassword(ctx, models.ChangePasswordRequest{
			OldPassword:     secrets[0],
			NewPassword:     secrets[1],
			ConfirmPassword: secrets[2],
		}); err != nil {
			return err
		}
		fmt.Fprintln(app.Out, "✓ Password changed")
		return nil
	}
	return fmt.Errorf("unknown profile action: %s", action)
}

func printUser(app *App, u *models.User) {
	fmt.Fprintf(app.Out, "Email:   %s\n", u.Email)
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		fmt.Fprintf(app.Out, "Name:    %s\n", name)
	}
	if u.Role != "" {
		fmt.Fprintf(app.Out, "Role:    %s\n", u.Role)
	}
	if u.Phone != "" {
		fmt.Fprintf(app.Out, "Phone:   %s\n", u.Phone)
	}
	if u.Address != "" {
		fmt.Fprintf(app.Out, "Address: %s\n", u.Address)
	}
}

// readSecrets prompts for each label on a terminal, or reads one line per
// label from piped input.
func readSecrets(app *App, labels ...string) ([]string, error) {
	out := make([]string, 0, len(labels))
	if f, ok := app.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		for _, label := range labels {
			fmt.Fprintf(app.Out, "%s: ", label)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(app.Out)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
			}
			out = append(out, string(b))
		}
		return out, nil
	}

	r := bufio.NewReader(app.In)
	for _, label := range labels {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		out = append(out, strings.TrimRight(line, "\r\n"))
	}
	return out, nil
}
