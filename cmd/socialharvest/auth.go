package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"socialharvest/pkg/auth"
	"socialharvest/pkg/ui"
)

var authPlatforms = []string{"instagram", "tiktok", "youtube", "x"}

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage platform credentials",
	Long: `Manage platform API credentials.

Credentials are stored in the system keychain when one is available.
Environment variables are always honored as a read-only fallback, so
CI and containers need no keychain at all.`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set <platform>",
	Short: "Store a platform credential",
	Long: `Store a platform API credential in the system keychain.

The token is read from the terminal without echo. Instagram also asks
for the business account id and page id the Graph API requires.`,
	Example: `  socialharvest auth set instagram
  socialharvest auth set youtube`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: authPlatforms,
	Run:       runAuthSet,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show [platform]",
	Short: "Show stored credentials",
	Long:  `Show stored credentials with the secrets masked.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runAuthShow,
}

// authDeleteCmd represents the auth delete command
var authDeleteCmd = &cobra.Command{
	Use:       "delete <platform>",
	Short:     "Delete a stored credential",
	Args:      cobra.ExactArgs(1),
	ValidArgs: authPlatforms,
	Run:       runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authDeleteCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) {
	platform := args[0]

	if platform == "tiktok" {
		ui.PrintInfo("Note", "tiktok harvesting scrapes public pages and needs no credential")
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	token, err := promptSecret(tokenPrompt(platform))
	if err != nil {
		ui.PrintError("Failed to read token", err.Error())
		os.Exit(1)
	}
	if token == "" {
		ui.PrintError("Empty token", "nothing stored")
		os.Exit(1)
	}

	cred := &auth.Credential{
		Platform:     platform,
		Token:        token,
		LastModified: time.Now(),
	}

	if platform == "instagram" {
		businessID, err := promptLine("Instagram business account id: ")
		if err != nil {
			ui.PrintError("Failed to read business account id", err.Error())
			os.Exit(1)
		}
		pageID, err := promptLine("Facebook page id: ")
		if err != nil {
			ui.PrintError("Failed to read page id", err.Error())
			os.Exit(1)
		}
		cred.Extra = map[string]string{
			"business_id": businessID,
			"page_id":     pageID,
		}
	}

	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store credential", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Stored credential for " + platform)
}

func runAuthShow(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	platforms := authPlatforms
	if len(args) == 1 {
		platforms = args[:1]
	}

	found := 0
	for _, platform := range platforms {
		cred, err := manager.Retrieve(platform)
		if err != nil {
			continue
		}
		found++
		printCredential(auth.Sanitize(cred))
	}

	if found == 0 {
		ui.PrintWarning("No stored credentials", "use 'socialharvest auth set <platform>'")
	}
}

func runAuthDelete(cmd *cobra.Command, args []string) {
	platform := args[0]

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to open credential store", err.Error())
		os.Exit(1)
	}

	if !manager.Exists(platform) {
		ui.PrintWarning("No stored credential", platform)
		return
	}

	if err := manager.Delete(platform); err != nil {
		ui.PrintError("Failed to delete credential", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Deleted credential for " + platform)
}

func printCredential(cred *auth.Credential) {
	fmt.Printf("%s\n", cred.Platform)
	fmt.Printf("  token: %s\n", cred.Token)
	for key, value := range cred.Extra {
		fmt.Printf("  %s: %s\n", key, value)
	}
	if !cred.LastModified.IsZero() {
		fmt.Printf("  modified: %s\n", cred.LastModified.Format(time.RFC3339))
	}
}

func tokenPrompt(platform string) string {
	switch platform {
	case "instagram":
		return "Facebook Graph API access token: "
	case "youtube":
		return "YouTube Data API key: "
	case "x":
		return "X API bearer token: "
	default:
		return "API token: "
	}
}

// promptSecret reads a line without echoing it. Falls back to plain
// line input when stdin is not a terminal (piped input in scripts).
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	return readLine()
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	return readLine()
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
