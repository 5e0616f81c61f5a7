package cmd

import (
	"fmt"

	"github.com/chengshang-tools/update-server/utils"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"
)

var secretFlags struct {
	issuer  string
	account string
	noTOTP  bool
}

var SecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate an admin token and a TOTP secret",
	Long: `Generate credentials for the admin endpoints. Put the token in admin.token
and, unless --no-totp is given, the TOTP secret in admin.totp_secret. The
otpauth URL can be imported into any authenticator app.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "token       = %q\n", utils.GenerateRandomString(32))
		if secretFlags.noTOTP {
			return nil
		}
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      secretFlags.issuer,
			AccountName: secretFlags.account,
		})
		if err != nil {
			return fmt.Errorf("failed to generate totp secret: %w", err)
		}
		fmt.Fprintf(out, "totp_secret = %q\n", key.Secret())
		fmt.Fprintf(out, "# %s\n", key.URL())
		return nil
	},
}

func init() {
	SecretCmd.Flags().StringVar(&secretFlags.issuer, "issuer", "update-server", "TOTP issuer name")
	SecretCmd.Flags().StringVar(&secretFlags.account, "account", "admin", "TOTP account name")
	SecretCmd.Flags().BoolVar(&secretFlags.noTOTP, "no-totp", false, "only generate the bearer token")
	RootCmd.AddCommand(SecretCmd)
}
