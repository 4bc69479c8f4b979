package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/api"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/client"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/editor"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/engine"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/spf13/cobra"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with report documents through the API",
	Long: `Client commands for report documents.
Each action is validated locally before it is sent to the server.
On a version conflict the latest document is printed together with the error.`,
}

var reportGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a report with its history and the actions available to you",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := newEngine()
		if err != nil {
			return err
		}
		snap, err := e.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, snap)
	},
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the approval history of a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := newEngine()
		if err != nil {
			return err
		}
		snap, err := e.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, snap.History)
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports in a box",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		opts := client.ListOptions{}
		opts.Box, _ = cmd.Flags().GetString("box")
		status, _ := cmd.Flags().GetString("status")
		opts.Status = workflow.Status(strings.ToUpper(status))
		opts.TemplateID, _ = cmd.Flags().GetString("template")
		opts.Keyword, _ = cmd.Flags().GetString("keyword")
		opts.Page, _ = cmd.Flags().GetInt("page")
		opts.PageSize, _ = cmd.Flags().GetInt("page-size")
		page, err := c.ListReports(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return printJSON(cmd, page)
	},
}

var reportCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show report counts per status for the current employee",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		counts, err := c.Counts(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, counts)
	},
}

// editAction 保存、提交、预约共用的执行流程
func editAction(action string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, _, err := newEngine()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		draftPath, _ := cmd.Flags().GetString("draft")
		d, err := readDraft(draftPath)
		if err != nil {
			return err
		}
		paths, _ := cmd.Flags().GetStringSlice("file")
		files, closeFiles, err := openFiles(paths)
		if err != nil {
			return err
		}
		defer closeFiles()

		var doc *workflow.ReportDocument
		if id, _ := cmd.Flags().GetString("id"); id != "" {
			snap, err := e.Load(ctx, id)
			if err != nil {
				return err
			}
			doc = snap.Doc
		}

		var result *workflow.ReportDocument
		switch action {
		case "save":
			result, err = e.SaveDraft(ctx, doc, d, files...)
		case "submit":
			result, err = e.Submit(ctx, doc, d, files...)
		case "schedule":
			date, _ := cmd.Flags().GetString("date")
			clock, _ := cmd.Flags().GetString("time")
			result, err = e.Schedule(ctx, doc, d, date, clock, files...)
		}
		return finish(cmd, action, result, err)
	}
}

// finish 输出操作结果,冲突时同时输出最新文档
func finish(cmd *cobra.Command, action string, doc *workflow.ReportDocument, err error) error {
	if err != nil {
		if doc != nil && workflow.IsConflict(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), "report changed on the server, latest version:")
			_ = printJSON(cmd, doc)
		}
		return err
	}
	logDoc(action, doc)
	return printJSON(cmd, doc)
}

var reportSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a report as draft",
	RunE:  editAction("save"),
}

var reportSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a report for approval",
	RunE:  editAction("submit"),
}

var reportScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a report submission",
	Long: `Schedule a report submission at a local date and time.
The time must be on the scheduling granularity and strictly in the future.`,
	RunE: editAction("schedule"),
}

// docAction 针对已有文档的单步操作
func docAction(action string, run func(ctx context.Context, e *engine.Engine, snap *engine.Snapshot, cmd *cobra.Command) (*workflow.ReportDocument, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, _, err := newEngine()
		if err != nil {
			return err
		}
		snap, err := e.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := run(cmd.Context(), e, snap, cmd)
		return finish(cmd, action, doc, err)
	}
}

var reportApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a report at your position in the approval line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(cmd, args[0], workflow.ApprovalApproved)
	},
}

var reportRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a report at your position in the approval line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(cmd, args[0], workflow.ApprovalRejected)
	},
}

func decide(cmd *cobra.Command, id string, result workflow.ApprovalStatus) error {
	e, _, err := newEngine()
	if err != nil {
		return err
	}
	comment, _ := cmd.Flags().GetString("comment")
	var doc *workflow.ReportDocument
	if result == workflow.ApprovalApproved {
		doc, err = e.Approve(cmd.Context(), id, comment)
	} else {
		doc, err = e.Reject(cmd.Context(), id, comment)
	}
	return finish(cmd, "decide", doc, err)
}

var reportRecallCmd = &cobra.Command{
	Use:   "recall <id>",
	Short: "Recall a report before any approver has approved it",
	Args:  cobra.ExactArgs(1),
	RunE: docAction("recall", func(ctx context.Context, e *engine.Engine, snap *engine.Snapshot, _ *cobra.Command) (*workflow.ReportDocument, error) {
		return e.Recall(ctx, snap.Doc)
	}),
}

var reportCancelScheduleCmd = &cobra.Command{
	Use:   "cancel-schedule <id>",
	Short: "Cancel a scheduled submission and return the report to draft",
	Args:  cobra.ExactArgs(1),
	RunE: docAction("cancel schedule", func(ctx context.Context, e *engine.Engine, snap *engine.Snapshot, _ *cobra.Command) (*workflow.ReportDocument, error) {
		return e.CancelSchedule(ctx, snap.Doc)
	}),
}

var reportResubmitCmd = &cobra.Command{
	Use:   "resubmit <id>",
	Short: "Resubmit a rejected report with a new approval line",
	Long: `Resubmit a rejected report. Without --draft the current content and
approval line are reused. A report can be resubmitted a limited number of times.`,
	Args: cobra.ExactArgs(1),
	RunE: docAction("resubmit", func(ctx context.Context, e *engine.Engine, snap *engine.Snapshot, cmd *cobra.Command) (*workflow.ReportDocument, error) {
		d := workflow.DraftOf(snap.Doc)
		if path, _ := cmd.Flags().GetString("draft"); path != "" {
			var err error
			if d, err = readDraft(path); err != nil {
				return nil, err
			}
		}
		return e.Resubmit(ctx, snap, d)
	}),
}

var reportUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a draft or recalled report, optionally submitting it",
	Args:  cobra.ExactArgs(1),
	RunE: docAction("update", func(ctx context.Context, e *engine.Engine, snap *engine.Snapshot, cmd *cobra.Command) (*workflow.ReportDocument, error) {
		path, _ := cmd.Flags().GetString("draft")
		d, err := readDraft(path)
		if err != nil {
			return nil, err
		}
		target := workflow.StatusDraft
		if submit, _ := cmd.Flags().GetBool("submit"); submit {
			target = workflow.StatusInProgress
		}
		return e.Update(ctx, snap.Doc, d, target)
	}),
}

var reportDownloadCmd = &cobra.Command{
	Use:   "download <id> <attachment>",
	Short: "Download an attachment of a report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		doc, err := c.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var found *workflow.Attachment
		for i := range doc.Attachments {
			if doc.Attachments[i].Name == args[1] {
				found = &doc.Attachments[i]
				break
			}
		}
		if found == nil {
			return &workflow.NotFoundError{Resource: "attachment", ID: args[1]}
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = found.Name
		}
		var w io.Writer = cmd.OutOrStdout()
		if out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		n, err := c.DownloadAttachment(cmd.Context(), *found, w)
		if err != nil {
			return err
		}
		api.GetLogger().WithField("bytes", n).Infof("downloaded %s", found.Name)
		return nil
	},
}

var reportEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a report and decide what to do with unsaved changes on exit",
	Long: `Open an editing session for a new or existing report, apply the
given changes and then leave the editor. When the session has unsaved
changes you are asked whether to save, discard or keep editing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := newEngine()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var doc *workflow.ReportDocument
		if len(args) == 1 {
			snap, err := e.Load(ctx, args[0])
			if err != nil {
				return err
			}
			doc = snap.Doc
		}
		session := editor.NewSession(e, doc)
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			session.SetTitle(title)
		}
		if cmd.Flags().Changed("body") {
			body, _ := cmd.Flags().GetString("body")
			session.SetContent(workflow.TextContent(body))
		}
		if approvers, _ := cmd.Flags().GetStringSlice("approver"); len(approvers) > 0 {
			refs := make([]workflow.Reference, 0, len(approvers))
			for _, id := range approvers {
				refs = append(refs, workflow.Reference{EmployeeID: id})
			}
			session.SetApprovalLine(workflow.LineOf(refs...))
		}
		paths, _ := cmd.Flags().GetStringSlice("file")
		files, closeFiles, err := openFiles(paths)
		if err != nil {
			return err
		}
		defer closeFiles()
		for _, f := range files {
			session.AddFile(f)
		}

		if submit, _ := cmd.Flags().GetBool("submit"); submit {
			saved, err := session.Submit(ctx)
			return finish(cmd, "submit", saved, err)
		}

		guard := editor.NewGuard(session, promptDecider(cmd.InOrStdin(), cmd.ErrOrStderr()), api.GetLogger())
		for {
			outcome, err := guard.RequestNavigate(ctx, "exit")
			if err != nil {
				return finish(cmd, "save", session.Doc(), err)
			}
			if outcome.Proceed {
				if outcome.Saved != nil {
					return printJSON(cmd, outcome.Saved)
				}
				return nil
			}
		}
	},
}

// promptDecider 在终端询问如何处理未保存的修改
func promptDecider(in io.Reader, out io.Writer) editor.Decider {
	reader := bufio.NewReader(in)
	return editor.DeciderFunc(func(ctx context.Context, target string) (editor.Decision, error) {
		for {
			fmt.Fprintf(out, "You have unsaved changes. Before %s: [s]ave, [d]iscard or [c]ancel? ", target)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return editor.DecisionNone, fmt.Errorf("no answer: %w", err)
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "s", "save":
				return editor.DecisionSave, nil
			case "d", "discard":
				return editor.DecisionDiscard, nil
			case "c", "cancel":
				return editor.DecisionCancel, nil
			}
		}
	})
}

// newClient 创建只用于查询的 API 客户端
func newClient() (*client.Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cc, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}
	return client.New(cc, client.WithLogger(api.GetLogger())), nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addClientFlags(reportCmd)

	reportCmd.AddCommand(reportGetCmd, reportHistoryCmd, reportListCmd, reportCountsCmd,
		reportSaveCmd, reportSubmitCmd, reportScheduleCmd, reportUpdateCmd,
		reportApproveCmd, reportRejectCmd, reportRecallCmd, reportResubmitCmd,
		reportCancelScheduleCmd, reportDownloadCmd, reportEditCmd)

	reportListCmd.Flags().String("box", "", "Box to list: drafts, sent, inbox, scheduled")
	reportListCmd.Flags().String("status", "", "Filter by status")
	reportListCmd.Flags().String("template", "", "Filter by template ID")
	reportListCmd.Flags().String("keyword", "", "Search in title")
	reportListCmd.Flags().Int("page", 1, "Page number")
	reportListCmd.Flags().Int("page-size", 20, "Page size")

	for _, c := range []*cobra.Command{reportSaveCmd, reportSubmitCmd, reportScheduleCmd} {
		c.Flags().String("draft", "-", "Draft JSON file, - for stdin")
		c.Flags().String("id", "", "Existing report ID")
		c.Flags().StringSlice("file", nil, "Attachment to upload (repeatable)")
	}
	reportScheduleCmd.Flags().String("date", "", "Local date, YYYY-MM-DD")
	reportScheduleCmd.Flags().String("time", "", "Local time, HH:MM")
	_ = reportScheduleCmd.MarkFlagRequired("date")
	_ = reportScheduleCmd.MarkFlagRequired("time")

	reportUpdateCmd.Flags().String("draft", "-", "Draft JSON file, - for stdin")
	reportUpdateCmd.Flags().Bool("submit", false, "Submit instead of saving as draft")

	for _, c := range []*cobra.Command{reportApproveCmd, reportRejectCmd} {
		c.Flags().String("comment", "", "Decision comment")
	}
	reportResubmitCmd.Flags().String("draft", "", "Draft JSON file with the revised report")
	reportDownloadCmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default: attachment name)")

	reportEditCmd.Flags().String("title", "", "New title")
	reportEditCmd.Flags().String("body", "", "New free-form content")
	reportEditCmd.Flags().StringSlice("approver", nil, "Approver employee IDs in order")
	reportEditCmd.Flags().StringSlice("file", nil, "Attachment to upload (repeatable)")
	reportEditCmd.Flags().Bool("submit", false, "Submit the edited report instead of leaving the editor")
}
