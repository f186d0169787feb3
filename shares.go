package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cboxdev/cs3fs-go/internal/cs3"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage direct shares",
	}

	create := &cobra.Command{
		Use:   "create <path>",
		Short: "Share a resource with a user or group",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareCreate,
	}
	create.Flags().String("grantee", "", "grantee opaque id (required)")
	create.Flags().String("idp", "", "grantee identity provider (required)")
	create.Flags().String("role", "VIEWER", "role to grant (VIEWER or EDITOR)")
	create.Flags().Bool("group", false, "grantee is a group")
	_ = create.MarkFlagRequired("grantee")
	_ = create.MarkFlagRequired("idp")

	list := &cobra.Command{
		Use:   "list",
		Short: "List shares by resource or creator",
		Args:  cobra.NoArgs,
		RunE:  runShareList,
	}
	list.Flags().String("path", "", "list shares on this resource")
	list.Flags().String("creator-idp", "", "list shares created by this idp")
	list.Flags().String("creator-id", "", "list shares created by this opaque id")

	update := &cobra.Command{
		Use:   "update <share-id>",
		Short: "Update a share's role or display name",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareUpdate,
	}
	update.Flags().String("role", "", "new role")
	update.Flags().String("display-name", "", "new display name")

	remove := &cobra.Command{
		Use:   "rm <share-id>",
		Short: "Remove a share",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareRemove,
	}

	cmd.AddCommand(create, list, update, remove)

	return cmd
}

func runShareCreate(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	grantee, _ := cmd.Flags().GetString("grantee")
	idp, _ := cmd.Flags().GetString("idp")
	role, _ := cmd.Flags().GetString("role")
	isGroup, _ := cmd.Flags().GetBool("group")

	granteeType := cs3.GranteeTypeUser
	if isGroup {
		granteeType = cs3.GranteeTypeGroup
	}

	share, err := fs.CreateShare(cmd.Context(), args[0], grantee, idp, role, granteeType)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, share)
	}

	statusf("Shared %s with %s %s as %s (share id %s)\n", args[0], granteeType, grantee, role, share.ID)

	return nil
}

func runShareList(cmd *cobra.Command, _ []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("path")
	creatorIDP, _ := cmd.Flags().GetString("creator-idp")
	creatorID, _ := cmd.Flags().GetString("creator-id")

	var shares []cs3.Share

	switch {
	case path != "":
		shares, err = fs.ListSharesByResource(cmd.Context(), path)
	case creatorIDP != "" && creatorID != "":
		shares, err = fs.ListSharesByCreator(cmd.Context(), creatorIDP, creatorID)
	default:
		return fmt.Errorf("either --path or both --creator-idp and --creator-id are required")
	}

	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, shares)
	}

	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{s.ID, s.ResourceID, string(s.Grantee.Type), s.Grantee.OpaqueID, s.Role})
	}

	printTable(os.Stdout, []string{"ID", "RESOURCE", "TYPE", "GRANTEE", "ROLE"}, rows)

	return nil
}

func runShareUpdate(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	role, _ := cmd.Flags().GetString("role")
	displayName, _ := cmd.Flags().GetString("display-name")

	share, err := fs.UpdateShare(cmd.Context(), args[0], role, displayName)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, share)
	}

	statusf("Updated share %s\n", share.ID)

	return nil
}

func runShareRemove(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	if err := fs.RemoveShare(cmd.Context(), args[0]); err != nil {
		return err
	}

	statusf("Removed share %s\n", args[0])

	return nil
}

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage public links",
	}

	create := &cobra.Command{
		Use:   "create <path>",
		Short: "Create a public link on a resource",
		Args:  cobra.ExactArgs(1),
		RunE:  runLinkCreate,
	}
	create.Flags().String("role", "VIEWER", "role granted through the link")
	create.Flags().String("password", "", "password protecting the link")
	create.Flags().String("expiration", "", "expiration timestamp")
	create.Flags().String("description", "", "link description")
	create.Flags().Bool("internal", false, "restrict the link to internal users")
	create.Flags().Bool("notify-uploads", false, "notify the owner on uploads")
	create.Flags().StringSlice("notify-extra", nil, "extra upload notification recipients")

	list := &cobra.Command{
		Use:   "list",
		Short: "List public links by resource or creator",
		Args:  cobra.NoArgs,
		RunE:  runLinkList,
	}
	list.Flags().String("path", "", "list links on this resource")
	list.Flags().String("creator-idp", "", "list links created by this idp")
	list.Flags().String("creator-id", "", "list links created by this opaque id")

	update := &cobra.Command{
		Use:   "update <link-id>",
		Short: "Update a public link",
		Args:  cobra.ExactArgs(1),
		RunE:  runLinkUpdate,
	}
	update.Flags().String("role", "", "new role")
	update.Flags().String("password", "", "new password")
	update.Flags().String("expiration", "", "new expiration timestamp")
	update.Flags().String("description", "", "new description")
	update.Flags().String("display-name", "", "new display name")
	update.Flags().Bool("notify-uploads", false, "notify the owner on uploads")

	remove := &cobra.Command{
		Use:   "rm <link-id>",
		Short: "Remove a public link",
		Args:  cobra.ExactArgs(1),
		RunE:  runLinkRemove,
	}

	cmd.AddCommand(create, list, update, remove)

	return cmd
}

func runLinkCreate(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	role, _ := cmd.Flags().GetString("role")
	password, _ := cmd.Flags().GetString("password")
	expiration, _ := cmd.Flags().GetString("expiration")
	description, _ := cmd.Flags().GetString("description")
	internal, _ := cmd.Flags().GetBool("internal")
	notifyUploads, _ := cmd.Flags().GetBool("notify-uploads")
	extraRecipients, _ := cmd.Flags().GetStringSlice("notify-extra")

	opts := cs3.PublicShareOptions{
		Password:        password,
		Expiration:      expiration,
		Description:     description,
		Internal:        internal,
		NotifyUploads:   notifyUploads,
		ExtraRecipients: extraRecipients,
	}

	link, err := fs.CreatePublicShare(cmd.Context(), args[0], role, opts)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, link)
	}

	statusf("Created public link %s on %s (token %s)\n", link.ID, args[0], link.Token)

	return nil
}

func runLinkList(cmd *cobra.Command, _ []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("path")
	creatorIDP, _ := cmd.Flags().GetString("creator-idp")
	creatorID, _ := cmd.Flags().GetString("creator-id")

	var links []cs3.PublicShare

	switch {
	case path != "":
		links, err = fs.ListPublicSharesByResource(cmd.Context(), path)
	case creatorIDP != "" && creatorID != "":
		links, err = fs.ListPublicSharesByCreator(cmd.Context(), creatorIDP, creatorID)
	default:
		return fmt.Errorf("either --path or both --creator-idp and --creator-id are required")
	}

	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, links)
	}

	rows := make([][]string, 0, len(links))
	for _, l := range links {
		protected := ""
		if l.PasswordProtected {
			protected = "yes"
		}

		rows = append(rows, []string{l.ID, l.ResourceID, l.Role, protected, l.Expiration})
	}

	printTable(os.Stdout, []string{"ID", "RESOURCE", "ROLE", "PASSWORD", "EXPIRES"}, rows)

	return nil
}

func runLinkUpdate(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	role, _ := cmd.Flags().GetString("role")
	password, _ := cmd.Flags().GetString("password")
	expiration, _ := cmd.Flags().GetString("expiration")
	description, _ := cmd.Flags().GetString("description")
	displayName, _ := cmd.Flags().GetString("display-name")
	notifyUploads, _ := cmd.Flags().GetBool("notify-uploads")

	update := cs3.UpdatePublicShare{
		Role:          role,
		Password:      password,
		Expiration:    expiration,
		Description:   description,
		DisplayName:   displayName,
		NotifyUploads: notifyUploads,
	}

	link, err := fs.UpdatePublicShare(cmd.Context(), args[0], update)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, link)
	}

	statusf("Updated public link %s\n", link.ID)

	return nil
}

func runLinkRemove(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	if err := fs.RemovePublicShare(cmd.Context(), args[0]); err != nil {
		return err
	}

	statusf("Removed public link %s\n", args[0])

	return nil
}

func newReceivedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "received",
		Short: "Manage shares received from others",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List received shares",
		Args:  cobra.NoArgs,
		RunE:  runReceivedList,
	}

	accept := &cobra.Command{
		Use:   "accept <share-id>",
		Short: "Accept a received share",
		Args:  cobra.ExactArgs(1),
		RunE:  runReceivedAccept,
	}

	reject := &cobra.Command{
		Use:   "reject <share-id>",
		Short: "Reject a received share",
		Args:  cobra.ExactArgs(1),
		RunE:  runReceivedReject,
	}

	cmd.AddCommand(list, accept, reject)

	return cmd
}

func runReceivedList(cmd *cobra.Command, _ []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	shares, err := fs.ListReceivedShares(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, shares)
	}

	rows := make([][]string, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []string{s.Share.ID, s.Share.ResourceID, s.Share.Creator, string(s.State)})
	}

	printTable(os.Stdout, []string{"ID", "RESOURCE", "CREATOR", "STATE"}, rows)

	return nil
}

func runReceivedAccept(cmd *cobra.Command, args []string) error {
	return setReceivedShareState(cmd, args[0], false)
}

func runReceivedReject(cmd *cobra.Command, args []string) error {
	return setReceivedShareState(cmd, args[0], true)
}

func setReceivedShareState(cmd *cobra.Command, id string, hidden bool) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	if err := fs.UpdateReceivedShare(cmd.Context(), id, hidden); err != nil {
		return err
	}

	verb := "Accepted"
	if hidden {
		verb = "Rejected"
	}

	statusf("%s share %s\n", verb, id)

	return nil
}

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users <query>",
		Short: "Search the identity provider for users",
		Args:  cobra.ExactArgs(1),
		RunE:  runUsers,
	}

	cmd.Flags().String("type", "", "restrict to a user type (e.g. USER_TYPE_PRIMARY)")

	return cmd
}

func runUsers(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	userType, _ := cmd.Flags().GetString("type")

	users, err := fs.FindUsers(cmd.Context(), args[0], userType)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, users)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Username, u.DisplayName, u.Mail, u.IDP})
	}

	printTable(os.Stdout, []string{"USERNAME", "NAME", "MAIL", "IDP"}, rows)

	return nil
}

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups <query>",
		Short: "Search the identity provider for groups",
		Args:  cobra.ExactArgs(1),
		RunE:  runGroups,
	}

	cmd.Flags().String("type", "", "restrict to a group type (GROUP_TYPE_REGULAR or GROUP_TYPE_FEDERATED)")

	return cmd
}

func runGroups(cmd *cobra.Command, args []string) error {
	fs, _, err := newFS()
	if err != nil {
		return err
	}

	groupType, _ := cmd.Flags().GetString("type")

	groups, err := fs.FindGroups(cmd.Context(), args[0], groupType)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, groups)
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.GroupName, g.DisplayName, g.IDP})
	}

	printTable(os.Stdout, []string{"GROUP", "NAME", "IDP"}, rows)

	return nil
}
