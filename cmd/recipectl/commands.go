package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tendant/recipe-content/pkg/recipecontent"
	"github.com/tendant/recipe-content/pkg/recipecontent/auth"
	"github.com/tendant/recipe-content/pkg/recipecontent/config"
	"github.com/tendant/recipe-content/pkg/recipecontent/validation"
)

// errInvalid makes a failed check exit non-zero after "invalid" was printed
var errInvalid = errors.New("validation failed")

// NewValidateCommand creates the validate command group
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an email, password or text input",
	}
	cmd.AddCommand(newCheckCommand("email <address>", "Check an email address", validation.ValidateEmail))
	cmd.AddCommand(newCheckCommand("password <password>", "Check password strength", validation.ValidatePassword))
	cmd.AddCommand(newInputCommand())
	return cmd
}

func newCheckCommand(use, short string, check func(string) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd, check(args[0]))
		},
	}
}

func newInputCommand() *cobra.Command {
	var maxLength int

	cmd := &cobra.Command{
		Use:   "input <text>",
		Short: "Check that text input is non-empty and not too long",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd, validation.ValidateInputLength(args[0], maxLength))
		},
	}

	cmd.Flags().IntVar(&maxLength, "max-length", validation.DefaultMaxInputLength, "Maximum length in characters")

	return cmd
}

func report(cmd *cobra.Command, ok bool) error {
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "invalid")
		return errInvalid
	}
	fmt.Fprintln(cmd.OutOrStdout(), "valid")
	return nil
}

// NewSanitizeCommand creates the sanitize command group
func NewSanitizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Normalize user input",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "email <address>",
		Short: "Trim and lower-case an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := validation.SanitizeEmail(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), email)
			return nil
		},
	})
	return cmd
}

// NewImageCommand creates the image command group
func NewImageCommand() *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Store, locate and remove recipe images",
		Long: `Store, locate and remove recipe images in the configured storage backend.

Operations act on behalf of the user given by --uid (or RECIPE_USER_UID).
Without one the caller is anonymous and every operation is rejected.`,
	}

	cmd.PersistentFlags().StringVar(&uid, "uid", "", "UID of the signed-in user (default: $RECIPE_USER_UID)")

	cmd.AddCommand(newImagePutCommand())
	cmd.AddCommand(newImageURLCommand())
	cmd.AddCommand(newImageRemoveCommand())

	return cmd
}

func newImagePutCommand() *cobra.Command {
	var mimeType string

	cmd := &cobra.Command{
		Use:   "put <recipe-uuid> <file>",
		Short: "Upload a recipe image",
		Long: `Upload a recipe image, replacing any existing one.

The MIME type is taken from --type or guessed from the file extension.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeUUID, filePath := args[0], args[1]

			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(filePath))
			}

			svc, cleanup, err := newService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			file := recipecontent.NewFile(filepath.Base(filePath), mimeType, data)
			meta, err := svc.StoreRecipeImage(cmd.Context(), file, recipeUUID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored: %s\n", meta.Key)
			fmt.Fprintf(out, "Size: %d\n", meta.Size)
			fmt.Fprintf(out, "Content-Type: %s\n", meta.ContentType)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mimeType, "type", "t", "", "Declared MIME type (default: from extension)")

	return cmd
}

func newImageURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <recipe-uuid>",
		Short: "Print the download URL of a recipe image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := newService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			url, err := svc.GetReferenceToUploadedFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newImageRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <recipe-uuid>",
		Aliases: []string{"delete"},
		Short:   "Delete a recipe image",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := newService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.RemoveImage(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed image of recipe %s\n", args[0])
			return nil
		},
	}
}

// newService builds the service from the environment, acting as the user
// named by --uid or RECIPE_USER_UID
func newService(cmd *cobra.Command) (recipecontent.Service, func(), error) {
	uid, _ := cmd.Flags().GetString("uid")
	if uid == "" {
		uid = os.Getenv("RECIPE_USER_UID")
	}

	provider := auth.Anonymous
	if uid != "" {
		provider = auth.SignedIn(uid)
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cmd)
	logger.Debug("Using storage backend", "backend", cfg.DefaultStorageBackend, "user_uid", uid)

	return cfg.BuildService(cmd.Context(), provider, logger)
}
