package commands

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/shikshalaya/sms-services/patro/internal/app"
)

// HashPassword handles the hash-password subcommand
func HashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	overwrite := fs.Bool("overwrite", false, "Overwrite existing auth file without asking")
	insecureUnmask := fs.Bool("insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: patro hash-password [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Creates the edit-mode auth file with an Argon2id password hash.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PATRO_AUTH_FILE    Path to auth file (default: auth.secret next to the binary)\n")
	}
	_ = fs.Parse(args)

	stdin := bufio.NewReader(os.Stdin)

	username := prompt(stdin, "Enter username: ")
	if username == "" {
		fail("Username cannot be empty")
	}

	var password, confirm string
	if *insecureUnmask {
		fmt.Fprintf(os.Stderr, "⚠️  WARNING: Password will be visible on screen!\n")
		password = prompt(stdin, "Enter password:   ")
		confirm = prompt(stdin, "Confirm password: ")
	} else {
		password = readMasked("Enter password:   ")
		confirm = readMasked("Confirm password: ")
	}

	if password == "" {
		fail("Password cannot be empty")
	}
	if password != confirm {
		fail("Passwords do not match")
	}

	askOverwrite := func(path string) bool {
		fmt.Printf("Auth file already exists: %s\n", path)
		answer := strings.ToLower(prompt(stdin, "Overwrite? (y/N): "))
		return answer == "y" || answer == "yes"
	}

	path, err := app.CreateAuthFile(username, password, *overwrite, askOverwrite)
	if err != nil {
		fail("Error: %v", err)
	}
	fmt.Printf("✅ Auth file created: %s (mode: 0400 read-only)\n", path)
	fmt.Printf("   Username: %s\n", username)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// readMasked reads a password in raw mode and echoes an asterisk per character
func readMasked(label string) string {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal: read without echo if possible
		password, _ := term.ReadPassword(fd)
		fmt.Println()
		return string(password)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	var password []rune
	buf := make([]byte, 1)
	for {
		if n, err := os.Stdin.Read(buf); err != nil || n == 0 {
			break
		}
		switch c := rune(buf[0]); c {
		case '\n', '\r':
			fmt.Print("\r\n")
			return string(password)
		case 127, 8: // backspace
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Print("\b \b")
			}
		case 3: // Ctrl+C
			_ = term.Restore(fd, oldState)
			fmt.Println()
			os.Exit(1)
		default:
			if c >= 32 && c <= 126 {
				password = append(password, c)
				fmt.Print("*")
			}
		}
	}

	fmt.Print("\r\n")
	return string(password)
}
