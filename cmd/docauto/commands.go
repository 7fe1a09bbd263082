package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kirillkom/docauto/internal/bootstrap"
	"github.com/kirillkom/docauto/internal/config"
	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/usecase"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
)

// listFlag collects repeated or comma separated values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func newFlagSet(name string, stdout io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	return fs
}

func writeJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitFailure
	}
	return exitOK
}

func runAssemble(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var (
		jobPath, fileOrder, dirOrder string
		exts, include, exclude       listFlag
		req                          domain.AssembleRequest
	)
	fs := newFlagSet("assemble", stdout)
	fs.StringVar(&jobPath, "job", "", "YAML job file; no other flags may be combined with it")
	fs.StringVar(&req.Root, "root", "", "directory holding the images")
	fs.Var(&exts, "ext", "image extensions (default: common image types)")
	fs.Var(&include, "include", "keep files whose name contains any term")
	fs.Var(&exclude, "exclude", "drop files whose name contains any term")
	fs.BoolVar(&req.Recurse, "recurse", false, "one chapter per subdirectory of root")
	fs.StringVar(&req.OutputPath, "output", "", "output PDF path")
	fs.StringVar(&req.SaveToFolder, "save-to", "", "write <base(root)>.pdf into this folder")
	fs.BoolVar(&req.Overwrite, "overwrite", false, "replace an existing output")
	fs.StringVar(&fileOrder, "file-order", usecase.OrderName, "file ordering: name, length, modtime, exif-date")
	fs.StringVar(&dirOrder, "dir-order", usecase.OrderName, "directory ordering: name, length, modtime")
	fs.BoolVar(&req.LabelWithDirectory, "label-dir", false, "stamp the directory name on each page")
	fs.BoolVar(&req.LabelWithFilename, "label-file", false, "stamp the file name on each page")
	fs.BoolVar(&req.KeepStaging, "keep-staging", false, "keep normalized page images")
	fs.StringVar(&req.Layout, "layout", "", "page layout: margin or full")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if jobPath != "" {
		if fs.NFlag() > 1 {
			fmt.Fprintln(stdout, "-job cannot be combined with other flags")
			return exitUsage
		}
		job, err := config.LoadJob(jobPath)
		if err != nil {
			return exitCode("assemble", err)
		}
		req = job.Request()
		fileOrder, dirOrder = job.FileOrder, job.DirOrder
	} else {
		req.Extensions = exts
		if len(req.Extensions) == 0 {
			req.Extensions = domain.ImageExtensions
		}
		req.Include = include
		req.Exclude = exclude
	}
	if req.Layout == "" {
		req.Layout = app.Config.Layout
	}

	var err error
	if req.FileOrder, err = usecase.OrderingByName(ctx, fileOrder, app.Metadata); err != nil {
		return exitCode("assemble", err)
	}
	if req.DirOrder, err = usecase.OrderingByName(ctx, dirOrder, app.Metadata); err != nil {
		return exitCode("assemble", err)
	}

	result, err := app.AssembleUC.Assemble(ctx, req)
	if err != nil {
		return exitCode("assemble", err)
	}
	if result.NoCandidates {
		fmt.Fprintln(stdout, skipStyle.Render("no matching images under "+req.Root))
		return exitNoCandidates
	}
	fmt.Fprintln(stdout, okStyle.Render(fmt.Sprintf("wrote %s (%d pages)", result.OutputPath, len(result.Pages))))
	return exitOK
}

func runMergePDF(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var (
		order            string
		include, exclude listFlag
		req              domain.MergeRequest
	)
	fs := newFlagSet("merge-pdf", stdout)
	fs.StringVar(&req.Root, "root", "", "directory holding the PDFs; positional arguments merge a list instead")
	fs.Var(&include, "include", "keep files whose name contains any term")
	fs.Var(&exclude, "exclude", "drop files whose name contains any term")
	fs.BoolVar(&req.Recurse, "recurse", false, "include PDFs of every subdirectory")
	fs.StringVar(&req.OutputPath, "output", "", "output PDF path (default <root>/<base(root)>.pdf)")
	fs.BoolVar(&req.Overwrite, "overwrite", false, "replace an existing output")
	fs.StringVar(&order, "order", usecase.OrderName, "file ordering: name, length, modtime")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var (
		result domain.MergeResult
		err    error
	)
	if fs.NArg() > 0 {
		if req.Root != "" {
			fmt.Fprintln(stdout, "-root cannot be combined with a file list")
			return exitUsage
		}
		result, err = app.MergeUC.MergeList(ctx, fs.Args(), req.OutputPath, req.Overwrite)
	} else {
		req.Include = include
		req.Exclude = exclude
		if req.Order, err = usecase.OrderingByName(ctx, order, app.Metadata); err != nil {
			return exitCode("merge-pdf", err)
		}
		result, err = app.MergeUC.MergeDirectory(ctx, req)
	}
	if err != nil {
		return exitCode("merge-pdf", err)
	}
	if result.NoCandidates {
		fmt.Fprintln(stdout, skipStyle.Render("no PDF files to merge"))
		return exitNoCandidates
	}
	fmt.Fprintln(stdout, okStyle.Render(fmt.Sprintf("merged %d files into %s", len(result.Sources), result.OutputPath)))
	return exitOK
}

func runExcel(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var (
		path, column string
		listTables   bool
		sel          domain.SheetSelector
	)
	fs := newFlagSet("excel", stdout)
	fs.StringVar(&path, "file", "", "workbook path")
	fs.StringVar(&sel.Worksheet, "sheet", "", "worksheet name (default: first sheet)")
	fs.StringVar(&sel.Table, "table", "", "named table")
	fs.StringVar(&sel.Range, "range", "", "cell range such as A1:C9 or a defined name")
	fs.StringVar(&column, "column", "", "print only the values of this header column")
	fs.BoolVar(&listTables, "list-tables", false, "print the table names and exit")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if path == "" {
		fmt.Fprintln(stdout, "-file is required")
		return exitUsage
	}

	if listTables {
		names, err := app.Workbooks.TableNames(ctx, path)
		if err != nil {
			return exitCode("excel", err)
		}
		return writeJSON(stdout, names)
	}
	table, err := app.Workbooks.Read(ctx, path, sel)
	if err != nil {
		return exitCode("excel", err)
	}
	if column == "" {
		return writeJSON(stdout, table)
	}
	values, ok := table.Column(column)
	if !ok {
		return exitCode("excel", domain.WrapError(domain.ErrNotFound, "select column", fmt.Errorf("column %q in %s", column, table.Sheet)))
	}
	return writeJSON(stdout, values)
}

type exifOutput struct {
	domain.ImageMetadata
	Year int `json:"year,omitempty"`
}

func runExif(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var tags listFlag
	fs := newFlagSet("exif", stdout)
	fs.Var(&tags, "tag", "keep tags whose name contains any term")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stdout, "at least one image path is required")
		return exitUsage
	}

	var filter func(string) bool
	if len(tags) > 0 {
		filter = func(name string) bool { return domain.ContainsAnyFold(name, tags) }
	}
	out := make([]exifOutput, 0, fs.NArg())
	for _, path := range fs.Args() {
		meta, err := app.Metadata.Read(ctx, path, filter)
		if err != nil {
			return exitCode("exif", err)
		}
		out = append(out, exifOutput{ImageMetadata: meta, Year: meta.YearTaken()})
	}
	return writeJSON(stdout, out)
}

func runZip(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var (
		root, dest string
		overwrite  bool
		names      listFlag
	)
	fs := newFlagSet("zip", stdout)
	fs.StringVar(&root, "root", "", "directory whose files are zipped")
	fs.StringVar(&dest, "dest", "", "archive path")
	fs.Var(&names, "name", "keep files whose name contains any term")
	fs.BoolVar(&overwrite, "overwrite", false, "replace an existing archive")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if root == "" || dest == "" {
		fmt.Fprintln(stdout, "-root and -dest are required")
		return exitUsage
	}

	stored, err := app.Archives.ZipDir(ctx, root, dest, names, overwrite)
	if err != nil {
		return exitCode("zip", err)
	}
	fmt.Fprintln(stdout, okStyle.Render(fmt.Sprintf("stored %d files in %s", len(stored), dest)))
	return exitOK
}

func runUnzip(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var (
		archive, dest string
		filter        domain.ZipFilter
		folders       listFlag
		files         listFlag
		exts          listFlag
	)
	fs := newFlagSet("unzip", stdout)
	fs.StringVar(&archive, "archive", "", "zip archive")
	fs.StringVar(&dest, "dest", ".", "destination directory")
	fs.Var(&folders, "folder", "keep entries whose folder contains any term")
	fs.Var(&files, "file", "keep entries whose file name contains any term")
	fs.Var(&exts, "ext", "keep entries with these extensions")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if archive == "" {
		fmt.Fprintln(stdout, "-archive is required")
		return exitUsage
	}
	filter.FolderTerms, filter.FileTerms, filter.Extensions = folders, files, exts

	written, err := app.Archives.Extract(ctx, archive, dest, filter)
	if err != nil {
		return exitCode("unzip", err)
	}
	fmt.Fprintln(stdout, okStyle.Render(fmt.Sprintf("extracted %d files into %s", len(written), dest)))
	return exitOK
}

func runVideo(ctx context.Context, app *bootstrap.App, args []string, stdout io.Writer) int {
	var output, method string
	fs := newFlagSet("video", stdout)
	fs.StringVar(&output, "output", "", "output video path, extension selects the container")
	fs.StringVar(&method, "method", string(domain.ConcatCompose), "compose or reduce")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if err := app.Video.Concatenate(ctx, fs.Args(), output, domain.ConcatMethod(method)); err != nil {
		return exitCode("video", err)
	}
	fmt.Fprintln(stdout, okStyle.Render(fmt.Sprintf("wrote %s from %d clips", output, fs.NArg())))
	return exitOK
}
