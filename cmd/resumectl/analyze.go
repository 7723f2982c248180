package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resumind/internal/extract"
	"resumind/internal/resumes"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume.pdf>",
	Short: "Upload a resume and get feedback for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("company", "", "company name")
	analyzeCmd.Flags().String("title", "", "job title")
	analyzeCmd.Flags().String("description", "", "job description")
	analyzeCmd.Flags().String("description-file", "", "read the job description from a file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	job, err := jobFromFlags(cmd)
	if err != nil {
		return err
	}
	file, err := readResume(args[0])
	if err != nil {
		return err
	}

	svc, closeFn, err := service(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	progress := func(label string) {
		fmt.Fprintln(cmd.ErrOrStderr(), label)
	}
	outcome := svc.Analyze(cmd.Context(), job, file, progress)
	if !outcome.OK() {
		return fmt.Errorf("%s", outcome.Message)
	}
	fmt.Fprintln(out, outcome.ID)
	return nil
}

func jobFromFlags(cmd *cobra.Command) (resumes.JobContext, error) {
	flags := cmd.Flags()
	company, _ := flags.GetString("company")
	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	if path, _ := flags.GetString("description-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return resumes.JobContext{}, fmt.Errorf("read description: %w", err)
		}
		description = string(data)
	}
	return resumes.JobContext{CompanyName: company, JobTitle: title, JobDescription: description}, nil
}

// readResume applies the same limits as the upload endpoint.
func readResume(path string) (resumes.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return resumes.File{}, err
	}
	if info.Size() > extract.MaxPDFBytes {
		return resumes.File{}, fmt.Errorf("%s is larger than %d MB", path, extract.MaxPDFBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return resumes.File{}, err
	}
	if !extract.IsPDF(data) {
		return resumes.File{}, fmt.Errorf("%s is not a PDF", path)
	}
	return resumes.File{Name: filepath.Base(path), Data: data}, nil
}
