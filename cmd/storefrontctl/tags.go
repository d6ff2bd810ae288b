package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Query and edit tag associations",
	}
	cmd.AddCommand(
		newTagsForCmd(),
		newTagsEntitiesCmd(),
		newTagsAttachCmd(),
		newTagsDetachCmd(),
		newTagsListCmd(),
		newTagsDeleteCmd(),
	)
	return cmd
}

func parseObjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid object id %q", s)
	}
	return id, nil
}

func newTagsForCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "for <type> <id>",
		Short: "List the tags attached to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseObjectID(args[1])
			if err != nil {
				return err
			}
			tags, err := a.tags.GetTagsFor(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			return printJSON(cmd, tags)
		}),
	}
}

func newTagsEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities <type> <label>",
		Short: "List the IDs of entities of a type carrying a tag",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ids, err := a.tags.GetEntitiesFor(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, ids)
		}),
	}
}

func newTagsAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <type> <id> <label>",
		Short: "Attach a tag to an entity, creating the tag if needed",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseObjectID(args[1])
			if err != nil {
				return err
			}
			tag, created, err := a.tags.Attach(cmd.Context(), args[0], id, args[2])
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("Attached %q to %s %d\n", tag.Label, args[0], id)
			} else {
				cmd.Printf("%s %d already tagged %q\n", args[0], id, tag.Label)
			}
			return nil
		}),
	}
}

func newTagsDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach <type> <id> <label>",
		Short: "Remove a tag from an entity",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseObjectID(args[1])
			if err != nil {
				return err
			}
			removed, err := a.tags.Detach(cmd.Context(), args[0], id, args[2])
			if err != nil {
				return err
			}
			if !removed {
				cmd.Printf("%s %d was not tagged %q\n", args[0], id, args[2])
				return nil
			}
			cmd.Printf("Detached %q from %s %d\n", args[2], args[0], id)
			return nil
		}),
	}
}

func newTagsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tag with its item count",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			usage, err := a.tags.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, usage)
		}),
	}
}

func newTagsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag-id>",
		Short: "Delete a tag and every association using it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseObjectID(args[0])
			if err != nil {
				return err
			}
			detached, err := a.tags.DeleteTag(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Printf("Deleted tag %d, detached from %d items\n", id, detached)
			return nil
		}),
	}
}

func newContentTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "content-types",
		Short: "List the taggable content types",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return printJSON(cmd, a.tags.ContentTypes())
		}),
	}
}
