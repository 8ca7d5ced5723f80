package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Browse and manage content",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published content",
	RunE: func(cmd *cobra.Command, args []string) error {
		mine, _ := cmd.Flags().GetBool("mine")
		creatorAddr, _ := cmd.Flags().GetString("creator")
		contentType, _ := cmd.Flags().GetString("type")
		tag, _ := cmd.Flags().GetString("tag")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "ListContent")
		if err != nil {
			return err
		}
		defer a.Close()

		var items []*model.ContentItem
		if mine {
			who, err := actingIdentity(cmd, a)
			if err != nil {
				return err
			}
			items, err = a.Service().ListByCreator(who.Address)
			if err != nil {
				return err
			}
		} else {
			items, err = a.Service().ListPublished(creator.ContentFilter{
				CreatorAddress: creatorAddr,
				ContentType:    model.ContentType(contentType),
				Tag:            tag,
				Limit:          limit,
			})
			if err != nil {
				return err
			}
		}

		if len(items) == 0 {
			fmt.Println("No content.")
			return nil
		}
		for _, item := range items {
			premium := ""
			if item.IsPremium {
				premium = item.EffectivePrice().String() + " ETH"
			}
			fmt.Printf("%s  %-8s  %-10s  %-12s  %s\n",
				item.ID,
				item.ContentType,
				item.Status,
				orDash(premium),
				item.Title,
			)
		}
		return nil
	},
}

var contentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a content item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ShowContent")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			// Browsing does not require an identity.
			who = model.Identity{}
		}
		item, locked, err := a.Service().ViewContent(args[0], who)
		if err != nil {
			return err
		}

		fmt.Printf("ID:      %s\n", item.ID)
		fmt.Printf("Title:   %s\n", item.Title)
		fmt.Printf("Creator: %s (%s)\n", orDash(item.CreatorName), item.CreatorAddress)
		fmt.Printf("Type:    %s\n", item.ContentType)
		fmt.Printf("Status:  %s\n", item.Status)
		if len(item.Tags) > 0 {
			fmt.Printf("Tags:    %s\n", strings.Join(item.Tags, ", "))
		}
		if item.IsPremium {
			fmt.Printf("Price:   %s ETH\n", item.EffectivePrice())
		}
		fmt.Printf("Views:   %d  Likes: %d\n", item.Views, item.Likes)
		fmt.Println()
		if item.Description != "" {
			fmt.Println(item.Description)
			fmt.Println()
		}
		if locked {
			fmt.Println("Premium content. Run 'creatorvault purchase " + item.ID + "' to unlock.")
			return nil
		}
		fmt.Println(item.Content)
		return nil
	},
}

var contentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a content item you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteContent")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			return err
		}
		if err := a.DeleteContent(who, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var contentImportFeedCmd = &cobra.Command{
	Use:   "import-feed <url>",
	Short: "Import RSS or Atom entries as draft articles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ImportFeed")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			return err
		}
		result, err := a.ImportFeed(cmd.Context(), who, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d entries, %d created, %d updated, %d skipped\n",
			orDash(result.Title), result.Entries, result.Created, result.Updated, result.Skipped)
		return nil
	},
}

func init() {
	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentShowCmd)
	contentCmd.AddCommand(contentDeleteCmd)
	contentCmd.AddCommand(contentImportFeedCmd)

	contentListCmd.Flags().Bool("mine", false, "List every item created by --as, any status")
	contentListCmd.Flags().String("creator", "", "Only content by this creator address")
	contentListCmd.Flags().String("type", "", "Only this content type (article, video, audio, image)")
	contentListCmd.Flags().String("tag", "", "Only content with this tag")
	contentListCmd.Flags().IntP("limit", "n", 0, "Maximum number of items to show")
}
