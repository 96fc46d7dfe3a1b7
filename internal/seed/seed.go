// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"atelier/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumProjects int
	ShouldClean bool
}

var (
	creativeFields = []string{
		"Illustration", "Graphic Design", "Photography", "UI/UX", "Motion Graphics",
		"Industrial Design", "Architecture", "Fashion", "Typography", "Branding",
		"3D Art", "Fine Arts", "Game Design", "Advertising",
	}

	tools = []string{
		"Photoshop", "Illustrator", "Figma", "Blender", "After Effects",
		"Procreate", "InDesign", "Lightroom", "Cinema 4D", "Sketch",
		"Premiere Pro", "ZBrush",
	}

	coverColors = []string{
		"#1a1a2e", "#e94560", "#0f3460", "#f5f5f5", "#2d6a4f",
		"#ffb703", "#8338ec", "#ef233c", "#a2d2ff", "#333333",
	}

	projectAdjectives = []string{
		"Minimal", "Bold", "Vintage", "Brutalist", "Playful", "Monochrome",
		"Organic", "Geometric", "Retro", "Editorial", "Handmade", "Neon",
	}

	projectSubjects = []string{
		"Poster Series", "Brand Identity", "Packaging Concept", "Type Specimen",
		"Photo Essay", "Mobile App", "Album Artwork", "Exhibition Catalog",
		"Character Sheet", "Landing Page", "Magazine Spread", "Icon Set",
	}
)

// Seed populates the database with test data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d projects...", opts.NumUsers, opts.NumProjects)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	projects, err := createProjects(db, users, opts.NumProjects)
	if err != nil {
		return fmt.Errorf("failed to create projects: %w", err)
	}
	log.Printf("✓ %d projects created", len(projects))

	if err := createEngagement(db, users, projects); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Println("✓ appreciations and follows created")

	log.Println("🌱 Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	tables := []string{
		"appreciations", "saved_projects", "follows",
		"project_labels", "project_modules", "projects",
		"experiences", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	// One shared hash keeps seeding fast; every seeded account logs in with
	// "Password123!".
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, i))
		user := models.User{
			Username:     username,
			Email:        fmt.Sprintf("%s@example.com", username),
			PasswordHash: string(hash),
			DisplayName:  first + " " + last,
			Bio:          gofakeit.Sentence(12),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createProjects(db *gorm.DB, users []models.User, count int) ([]models.Project, error) {
	if len(users) == 0 {
		return nil, nil
	}

	projects := make([]models.Project, 0, count)
	for i := 0; i < count; i++ {
		owner := users[rand.Intn(len(users))]
		title := pick(projectAdjectives) + " " + pick(projectSubjects)
		color := pick(coverColors)

		moduleCount := 1 + rand.Intn(5)
		modules := make([]models.ProjectModule, 0, moduleCount)
		for m := 0; m < moduleCount; m++ {
			modules = append(modules, models.ProjectModule{
				Type: models.ModuleTypeImage,
				Image: models.ImageMeta{
					URL:           gofakeit.ImageURL(1200, 800),
					Filename:      gofakeit.Word() + ".jpg",
					Width:         1200,
					Height:        800,
					DominantColor: color,
				},
				Caption:  gofakeit.Sentence(6),
				Position: m + 1,
			})
		}

		project := models.Project{
			Title:       title,
			Description: gofakeit.Paragraph(1, 3, 8, "\n"),
			OwnerID:     owner.ID,
			CoverImage: models.ImageMeta{
				URL:           gofakeit.ImageURL(800, 600),
				Filename:      "cover.jpg",
				Width:         800,
				Height:        600,
				DominantColor: color,
			},
			Modules: modules,
			Labels: models.BuildLabels(
				sample(creativeFields, 1+rand.Intn(2)),
				strings.Fields(strings.ToLower(title)),
				sample(tools, 1+rand.Intn(3)),
			),
			Views: int64(rand.Intn(5000)),
		}
		if err := db.Create(&project).Error; err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func createEngagement(db *gorm.DB, users []models.User, projects []models.Project) error {
	for _, user := range users {
		for _, project := range projects {
			if project.OwnerID == user.ID || rand.Intn(100) >= 30 {
				continue
			}
			err := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Appreciation{UserID: user.ID, ProjectID: project.ID}).Error
			if err != nil {
				return err
			}
		}

		for _, other := range users {
			if other.ID == user.ID || rand.Intn(100) >= 15 {
				continue
			}
			err := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: user.ID, FolloweeID: other.ID}).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func pick(values []string) string {
	return values[rand.Intn(len(values))]
}

func sample(values []string, n int) []string {
	if n > len(values) {
		n = len(values)
	}
	perm := rand.Perm(len(values))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, values[idx])
	}
	return out
}
