package database

import (
	"log"
	"time"

	"classtrack-backend/shared/database/models"
	utils "classtrack-backend/shared/utils/auth"
)

// SeedDatabase populates demo data for local development. Every step is
// idempotent so the seeder can run against an existing database.
func SeedDatabase() error {
	log.Println("🌱 Seeding demo data...")

	groups, err := seedGroups()
	if err != nil {
		return err
	}
	log.Printf("✅ Groups ready: %d", len(groups))

	users, err := seedUsers()
	if err != nil {
		return err
	}
	log.Printf("✅ Users ready: %d", len(users))

	if err := seedMemberships(groups, users); err != nil {
		return err
	}
	log.Println("✅ Group memberships ready")

	if err := seedChapters(); err != nil {
		return err
	}
	log.Println("✅ Chapters ready")

	if err := seedHomeworkAndReports(users); err != nil {
		return err
	}
	log.Println("✅ Homework and reports ready")

	return nil
}

// CreateSuperAdmin creates the admin account if it does not exist yet.
func CreateSuperAdmin(email, password, name string) error {
	email = utils.NormalizeEmail(email)

	var existing int64
	err := DB.Model(&models.User{}).
		Where("email = ? AND deleted_at IS NULL", email).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		log.Printf("✅ Super admin already exists: %s", email)
		return nil
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Type:     models.UserTypeAdmin,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Super admin created: %s", email)
	return nil
}

func seedGroups() (map[string]models.Group, error) {
	wanted := []models.Group{
		{Name: "Morning Class", Color: "#2563eb"},
		{Name: "Evening Class", Color: "#16a34a"},
	}

	result := make(map[string]models.Group, len(wanted))
	for _, group := range wanted {
		var existing models.Group
		err := DB.Where("name = ?", group.Name).First(&existing).Error
		if err == nil {
			result[existing.Name] = existing
			continue
		}
		if err := DB.Create(&group).Error; err != nil {
			return nil, err
		}
		result[group.Name] = group
	}
	return result, nil
}

func seedUsers() (map[string]models.User, error) {
	type demoUser struct {
		name         string
		email        string
		userType     string
		studentEmail string
	}
	wanted := []demoUser{
		{name: "Alice Demo", email: "alice@example.com", userType: models.UserTypeStudent},
		{name: "Bob Demo", email: "bob@example.com", userType: models.UserTypeStudent},
		{name: "Tina Teacher", email: "tina@example.com", userType: models.UserTypeTeacher},
		{name: "Paul Parent", email: "paul@example.com", userType: models.UserTypeParent, studentEmail: "alice@example.com"},
	}

	hashedPassword, err := utils.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	result := make(map[string]models.User, len(wanted))
	for _, demo := range wanted {
		var existing models.User
		err := DB.Where("email = ? AND deleted_at IS NULL", demo.email).First(&existing).Error
		if err == nil {
			result[existing.Email] = existing
			continue
		}

		user := models.User{
			Name:     demo.name,
			Email:    demo.email,
			Password: hashedPassword,
			Type:     demo.userType,
		}
		if demo.studentEmail != "" {
			if student, ok := result[demo.studentEmail]; ok {
				user.StudentID = &student.ID
			}
		}
		if err := DB.Create(&user).Error; err != nil {
			return nil, err
		}
		result[user.Email] = user
	}
	return result, nil
}

func seedMemberships(groups map[string]models.Group, users map[string]models.User) error {
	type link struct {
		groupName string
		userEmail string
		role      string
	}
	wanted := []link{
		{groupName: "Morning Class", userEmail: "alice@example.com", role: "Member"},
		{groupName: "Morning Class", userEmail: "tina@example.com", role: "Lead"},
		{groupName: "Evening Class", userEmail: "bob@example.com", role: "Member"},
		{groupName: "Evening Class", userEmail: "tina@example.com", role: "Lead"},
	}

	for _, item := range wanted {
		group, ok := groups[item.groupName]
		if !ok {
			continue
		}
		user, ok := users[item.userEmail]
		if !ok {
			continue
		}

		var existing int64
		err := DB.Model(&models.GroupMembership{}).
			Where("group_id = ? AND user_id = ?", group.ID, user.ID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			continue
		}

		membership := models.GroupMembership{GroupID: group.ID, UserID: user.ID, Role: item.role}
		if err := DB.Create(&membership).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedChapters() error {
	wanted := []models.Chapter{
		{Title: "Foundations", Description: "Getting started", Status: models.ChapterStatusCompleted, OrderIndex: 1},
		{Title: "Intermediate Topics", Description: "Building up", Status: models.ChapterStatusInProgress, OrderIndex: 2},
		{Title: "Advanced Topics", Description: "The deep end", Status: models.ChapterStatusPending, OrderIndex: 3},
	}

	for _, chapter := range wanted {
		var existing int64
		err := DB.Model(&models.Chapter{}).
			Where("title = ? AND deleted_at IS NULL", chapter.Title).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			continue
		}
		if err := DB.Create(&chapter).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedHomeworkAndReports(users map[string]models.User) error {
	alice, haveAlice := users["alice@example.com"]
	tina, haveTina := users["tina@example.com"]
	if !haveAlice || !haveTina {
		return nil
	}

	var homeworkCount int64
	err := DB.Model(&models.Homework{}).
		Where("student_id = ?", alice.ID).
		Count(&homeworkCount).Error
	if err != nil {
		return err
	}
	if homeworkCount == 0 {
		homework := models.Homework{
			StudentID:      alice.ID,
			Chapter:        "Foundations",
			Content:        "Completed all practice drills.",
			SubmissionDate: time.Now().Add(-48 * time.Hour),
		}
		if err := DB.Create(&homework).Error; err != nil {
			return err
		}
	}

	var reportCount int64
	err = DB.Model(&models.Report{}).
		Where("student_id = ? AND teacher_id = ?", alice.ID, tina.ID).
		Count(&reportCount).Error
	if err != nil {
		return err
	}
	if reportCount == 0 {
		report := models.Report{
			StudentID: alice.ID,
			TeacherID: tina.ID,
			Date:      time.Now().Add(-24 * time.Hour),
			Type:      models.ReportTypeText,
			Content:   "Steady progress this week.",
		}
		if err := DB.Create(&report).Error; err != nil {
			return err
		}
	}

	return nil
}
