package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) newBlogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Public blog posts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := a.env.Blog.Public(cmd.Context())
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return writeJSON(a.out, posts)
			}

			t := newTable(a.out, "ID", "TITLE", "LIKES", "LIKED")
			for i := range posts {
				t.row(posts[i].ID, posts[i].Title, strconv.Itoa(posts[i].Likes), yesNo(a.env.Blog.HasLiked(&posts[i])))
			}
			return t.flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post as this machine's visitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.env.Blog.Like(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return writeJSON(a.out, result)
			}
			fmt.Fprintf(a.out, "Post %s now has %d likes\n", args[0], result.Likes)
			return nil
		},
	})
	return cmd
}
