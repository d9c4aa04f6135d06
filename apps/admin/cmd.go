package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/core/student"
	"github.com/trezcool/malipo/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	engine     string
	usrRepo    user.Repository
	studentSvc *student.Service
	billingSvc *billing.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  addstudent -name NAME -roll ROLL_NUMBER -class CLASS [-contact PARENT_CONTACT] - register a student")
	fmt.Println("  sweep-overdue - mark every unpaid invoice past its due date as Overdue")
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name (defaults to the username).")
	addUserAdmin := addUserCmd.Bool("admin", false, "Make the user a bursar.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentRoll := addStudentCmd.String("roll", "", "The student's unique roll number.")
	addStudentClass := addStudentCmd.String("class", "", "The student's class.")
	addStudentContact := addStudentCmd.String("contact", "", "The parent's contact.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentName == "" || *addStudentRoll == "" || *addStudentClass == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(student.NewStudent{
			Name:          *addStudentName,
			RollNumber:    *addStudentRoll,
			Class:         *addStudentClass,
			ParentContact: *addStudentContact,
		})

	case "sweep-overdue":
		return cli.sweepOverdue()

	default:
		cli.printUsage()
		return errHelp
	}
}

// checkPassword enforces the password policy of the API on passwords typed in the terminal.
func checkPassword(pwd string, usrAttrs ...string) error {
	if tag := user.CheckPassword(pwd, usrAttrs...); tag != "" {
		return errors.New(user.PasswordPolicyText(tag))
	}
	return nil
}
