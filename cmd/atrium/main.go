package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "atrium",
	Short: "Atrium — CRM backend",
	Long:  "Atrium is a multi-tenant CRM backend: organizations with role-based membership, contacts, deals moving through a sales pipeline with an auto-logged timeline, follow-up tasks, and cached pipeline analytics.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/atrium.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
