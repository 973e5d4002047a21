package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Input is where confirmations are read from.
var Input io.Reader = os.Stdin

// Confirm prompts the user with a yes/no question. Returns true for yes.
func Confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", StyleWarning.Render(prompt))
	return readYes(Input)
}

// ConfirmDanger is like Confirm but styled for destructive actions such as
// redeploying over a live campaign.
func ConfirmDanger(prompt string) bool {
	fmt.Printf("%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return readYes(Input)
}

func readYes(r io.Reader) bool {
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
