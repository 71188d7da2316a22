// Package seed fills a development database with fake users, friendships,
// posts, comments and likes.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Account is a fixed user the plan always creates, e.g. for logging in during development.
type Account struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Email      string `yaml:"email"`
	Location   string `yaml:"location"`
	Profession string `yaml:"profession"`
}

// Plan describes how much data to generate.
type Plan struct {
	Seed              int64     `yaml:"seed"`
	Password          string    `yaml:"password"`
	Users             int       `yaml:"users"`
	FriendsPerUser    int       `yaml:"friends_per_user"`
	PostsPerUser      int       `yaml:"posts_per_user"`
	CommentsPerPost   int       `yaml:"comments_per_post"`
	RepliesPerComment int       `yaml:"replies_per_comment"`
	LikesPerPost      int       `yaml:"likes_per_post"`
	Accounts          []Account `yaml:"accounts"`
}

// DefaultPlan is used when no plan file is given.
func DefaultPlan() Plan {
	return Plan{
		Seed:              42,
		Password:          "password123",
		Users:             20,
		FriendsPerUser:    3,
		PostsPerUser:      2,
		CommentsPerPost:   2,
		RepliesPerComment: 1,
		LikesPerPost:      3,
	}
}

// LoadPlan reads a YAML plan. Fields missing from the file keep their default values.
func LoadPlan(path string) (Plan, error) {
	plan := DefaultPlan()
	if path == "" {
		return plan, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("读取种子计划失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("解析种子计划失败: %w", err)
	}
	return plan, plan.Validate()
}

func (p Plan) Validate() error {
	switch {
	case p.Users < 0 || p.FriendsPerUser < 0 || p.PostsPerUser < 0 || p.CommentsPerPost < 0 || p.RepliesPerComment < 0 || p.LikesPerPost < 0:
		return fmt.Errorf("seed plan counts must not be negative")
	case p.Password == "":
		return fmt.Errorf("seed plan needs a password")
	}
	for _, a := range p.Accounts {
		if a.Email == "" || a.FirstName == "" {
			return fmt.Errorf("seed account needs first_name and email")
		}
	}
	return nil
}
