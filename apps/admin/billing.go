package main

import (
	"context"
	"fmt"

	"github.com/trezcool/malipo/core/student"
)

func (cli *commandLine) addStudent(ns student.NewStudent) error {
	ctx := context.Background()
	created, err := cli.studentSvc.Create(ctx, ns)
	if err != nil {
		return err
	}

	// echo the stored row, not the input
	std, err := cli.studentSvc.Get(ctx, created.ID)
	if err != nil {
		return err
	}
	count, err := cli.studentSvc.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("student %q (%s, %s) registered with id %d; %d student(s) in total\n", std.Name, std.RollNumber, std.Class, std.ID, count)
	return nil
}

func (cli *commandLine) sweepOverdue() error {
	n, err := cli.billingSvc.MarkOverdue(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d invoice(s) marked overdue\n", n)
	return nil
}
