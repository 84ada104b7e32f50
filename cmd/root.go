/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mealcycle",
	Short: "Backend API server for the mealcycle meal-subscription platform",
	Long: `mealcycle is the JSON API backing the meal-subscription platform:
customer signup and login, meal pack purchases, weekly menu publication,
order placement, and the admin back office.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
