package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

func dimensionNames() string {
	names := make([]string, 0, len(group.Dimensions()))
	for _, d := range group.Dimensions() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}

var groupCmd = &cobra.Command{
	Use:     "group [dimension]",
	Short:   "Group the visible issues by status, project, priority, epic or epic-type",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by := string(group.Status)
		if len(args) == 1 {
			by = args[0]
		}
		dim, err := group.ParseDimension(by)
		if err != nil {
			return fmt.Errorf("%w (want one of: %s)", err, dimensionNames())
		}

		if dim == group.EpicAndType {
			epics, err := dash.Nested(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, epics, func(w io.Writer, t *ui.Theme) error {
				sections := make([]ui.Section, 0, len(epics))
				for _, e := range epics {
					sections = append(sections, ui.Section{Key: e.Key, Groups: e.Types})
				}
				return t.WriteSections(w, sections)
			})
		}

		groups, err := dash.Groups(cmd.Context(), dim)
		if err != nil {
			return err
		}
		return render(cmd, groups, func(w io.Writer, t *ui.Theme) error {
			return t.WriteGroups(w, groups)
		})
	},
}
