package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/temirov/rstfmt-action/cmd/cli"
)

const (
	exitErrorTemplateConstant             = "%v\n"
	workflowErrorTemplateConstant         = "::error::%s\n"
	githubActionsEnvironmentNameConstant  = "GITHUB_ACTIONS"
	githubActionsEnvironmentValueConstant = "true"
)

var workflowCommandEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// main formats the configured files and exits non-zero with a single reason when any step fails.
func main() {
	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.Execute(executionContext)
	stop()

	if executionError != nil {
		if os.Getenv(githubActionsEnvironmentNameConstant) == githubActionsEnvironmentValueConstant {
			fmt.Fprintf(os.Stdout, workflowErrorTemplateConstant, workflowCommandEscaper.Replace(executionError.Error()))
		} else {
			fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		}
		os.Exit(1)
	}
}
