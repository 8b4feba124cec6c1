package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nexusfetch/internal"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Validate the API key and show account and quota information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		status, err := client.UserStatus(ctx)
		if err != nil {
			return fmt.Errorf("key validation failed: %w", err)
		}

		tier := "member"
		if status.IsPremium {
			tier = "premium"
		}
		fmt.Printf("Logged in as:       %s (user %d, %s)\n", status.Name, status.UserID, tier)
		fmt.Printf("Requests remaining: %d daily / %d hourly\n",
			client.DailyRemaining(), client.HourlyRemaining())
		return nil
	},
}

var modinfoCmd = &cobra.Command{
	Use:   "modinfo <GAME> <MOD_ID>",
	Short: "Show a mod's metadata",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modID, err := parseID(args[1], "mod id")
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		mod, err := client.ModInfo(ctx, args[0], modID)
		if err != nil {
			return err
		}

		fmt.Printf("Name:    %s\n", mod.Name)
		fmt.Printf("Version: %s\n", mod.Version)
		fmt.Printf("Author:  %s\n", mod.Author)
		fmt.Printf("Status:  %s\n", mod.Status)
		if mod.Summary != "" {
			fmt.Printf("Summary: %s\n", mod.Summary)
		}
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files <GAME> <MOD_ID>",
	Short: "List the downloadable files of a mod",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modID, err := parseID(args[1], "mod id")
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		result, err := client.ModFiles(ctx, args[0], modID)
		if err != nil {
			return err
		}

		for _, file := range result.Files {
			primary := ""
			if file.IsPrimary {
				primary = " [primary]"
			}
			fmt.Printf("%-10d %-12s %s%s\n", file.FileID, file.Version, file.Name, primary)
		}
		return nil
	},
}

var fileinfoCmd = &cobra.Command{
	Use:   "fileinfo <GAME> <MOD_ID> <FILE_ID>",
	Short: "Show the metadata of a single mod file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseModFileID(args)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		file, err := client.FileInfo(ctx, id)
		if err != nil {
			return err
		}

		fmt.Printf("Name:     %s\n", file.Name)
		fmt.Printf("File:     %s\n", file.FileName)
		fmt.Printf("Version:  %s\n", file.Version)
		fmt.Printf("Size:     %d KB\n", file.SizeKB)
		return nil
	},
}

var md5Cmd = &cobra.Command{
	Use:   "md5 <GAME> <MD5_HASH>",
	Short: "Look up mods by the MD5 hash of an archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		results, err := client.ModInfoByHash(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no mod found for hash %s", args[1])
		}

		for _, result := range results {
			fmt.Printf("%-10d %-10d %s (%s)\n",
				result.Mod.ModID, result.FileDetails.FileID, result.Mod.Name, result.FileDetails.FileName)
		}
		return nil
	},
}

var endorseVersion string

var endorseCmd = &cobra.Command{
	Use:   "endorse <GAME> <MOD_ID>",
	Short: "Endorse a mod",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modID, err := parseID(args[1], "mod id")
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := buildClient(ctx)
		if err != nil {
			return err
		}

		result, err := client.Endorse(ctx, args[0], modID, endorseVersion)
		if err != nil {
			return err
		}

		fmt.Printf("Endorsement: %s\n", result.Status)
		if result.Message != "" {
			fmt.Printf("Message:     %s\n", result.Message)
		}
		return nil
	},
}

// parseModFileID builds a ModFileID from <GAME> <MOD_ID> <FILE_ID> args
func parseModFileID(args []string) (internal.ModFileID, error) {
	modID, err := parseID(args[1], "mod id")
	if err != nil {
		return internal.ModFileID{}, err
	}
	fileID, err := parseID(args[2], "file id")
	if err != nil {
		return internal.ModFileID{}, err
	}
	return internal.ModFileID{Game: args[0], ModID: modID, FileID: fileID}, nil
}

func init() {
	endorseCmd.Flags().StringVar(&endorseVersion, "mod-version", "", "Mod version to endorse")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(modinfoCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(fileinfoCmd)
	rootCmd.AddCommand(md5Cmd)
	rootCmd.AddCommand(endorseCmd)
}
