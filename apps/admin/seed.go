package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

var (
	defaultAdmin = user.NewUser{Name: "Admin", LoginID: "admin@gmail.com", Password: "admin123", Role: user.RoleAdmin}

	defaultBranches = []branch.NewBranch{
		{
			Name: "Computer Science Engineering", Code: "CSE", Description: "CS & IT",
			FeeStructure: branch.FeeStructure{TotalFee: 80000, TuitionFee: 50000, ExamFee: 10000, LabFee: 15000, OtherFee: 5000},
			Subjects:     []string{"Data Structures", "Algorithms", "DBMS", "OS", "Computer Networks", "Web Development", "Machine Learning"},
		},
		{
			Name: "Electronics & Communication Engineering", Code: "ECE", Description: "Electronics & Comm",
			FeeStructure: branch.FeeStructure{TotalFee: 75000, TuitionFee: 45000, ExamFee: 10000, LabFee: 15000, OtherFee: 5000},
			Subjects:     []string{"Circuit Theory", "Signals & Systems", "Digital Electronics", "Microprocessors", "Communication Systems"},
		},
		{
			Name: "Mechanical Engineering", Code: "MECH", Description: "Mechanical",
			FeeStructure: branch.FeeStructure{TotalFee: 70000, TuitionFee: 42000, ExamFee: 10000, LabFee: 13000, OtherFee: 5000},
			Subjects:     []string{"Engineering Mechanics", "Thermodynamics", "Fluid Mechanics", "Manufacturing", "CAD/CAM"},
		},
		{
			Name: "Civil Engineering", Code: "CIVIL", Description: "Civil & Structural",
			FeeStructure: branch.FeeStructure{TotalFee: 68000, TuitionFee: 40000, ExamFee: 10000, LabFee: 12000, OtherFee: 6000},
			Subjects:     []string{"Structural Analysis", "Surveying", "Concrete Technology", "Geotechnical Engineering", "Environmental Engg"},
		},
	}
)

// seed creates the default branches and admin account. Existing ones are left untouched.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	for _, nb := range defaultBranches {
		if _, err := cli.branchSvc.GetByCode(ctx, nb.Code); err == nil {
			logger.Printf("branch %s exists, skipped", nb.Code)
			continue
		} else if errors.Cause(err) != branch.ErrNotFound {
			return err
		}
		if err := nb.Validate(cli.validate); err != nil {
			return err
		}
		b, err := cli.branchSvc.Create(ctx, nb)
		if err != nil {
			return err
		}
		logger.Printf("branch %s created (%s)", b.Code, b.Name)
	}

	if _, err := cli.usrSvc.GetByLoginID(ctx, defaultAdmin.LoginID); err == nil {
		logger.Printf("admin %s exists, skipped", defaultAdmin.LoginID)
		return nil
	} else if errors.Cause(err) != user.ErrNotFound {
		return err
	}
	if _, err := cli.usrSvc.Create(ctx, defaultAdmin); err != nil {
		return err
	}
	logger.Printf("admin created: %s / %s", defaultAdmin.LoginID, defaultAdmin.Password)
	return nil
}
