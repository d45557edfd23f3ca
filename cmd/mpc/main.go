package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/texrepo/mpc/commands"
	"github.com/texrepo/mpc/pkg/mpc"
)

// applyEnvDefaults lets every long flag be set through an MPC_<FLAG_NAME>
// environment variable when the flag itself wasn't passed on the command
// line, e.g. MPC_REPOSITORY for --repository.
func applyEnvDefaults(flags *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("MPC")
	v.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		envVar := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if val := v.GetString(envVar); val != "" {
			flags.Set(f.Name, val)
		}
	})
}

func main() {
	cmd := commands.Mpc(commands.DefaultRunWrapper, mpc.FmtUI)
	cmd.SilenceUsage = true
	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		applyEnvDefaults(c.Flags())
	}
	cmd.Execute()
}
