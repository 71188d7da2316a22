package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"

	"social-go/internal/auth"
	"social-go/internal/models"
	"social-go/internal/services"
	"social-go/internal/storage"
)

// Result counts what Run created.
type Result struct {
	Users       int
	Friendships int
	Posts       int
	Comments    int
	Replies     int
	Likes       int
}

// Seeder writes generated data through the repositories and services the API uses.
type Seeder struct {
	users       storage.UserRepository
	friendships storage.FriendshipRepository
	posts       services.PostService
	comments    services.CommentService
	log         *logrus.Logger
}

func NewSeeder(
	users storage.UserRepository,
	friendships storage.FriendshipRepository,
	posts services.PostService,
	comments services.CommentService,
	log *logrus.Logger,
) *Seeder {
	return &Seeder{users: users, friendships: friendships, posts: posts, comments: comments, log: log}
}

// GenerateUsers builds the plan's fixed accounts followed by plan.Users fake ones.
// The same seed always yields the same users.
func GenerateUsers(plan Plan, faker *gofakeit.Faker) []*models.User {
	users := make([]*models.User, 0, len(plan.Accounts)+plan.Users)
	for _, a := range plan.Accounts {
		users = append(users, &models.User{
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			Email:      strings.ToLower(a.Email),
			Location:   a.Location,
			Profession: a.Profession,
			Verified:   true,
		})
	}
	for i := 0; i < plan.Users; i++ {
		first, last := faker.FirstName(), faker.LastName()
		users = append(users, &models.User{
			FirstName:  first,
			LastName:   last,
			Email:      strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, i)),
			Location:   faker.City(),
			Profession: faker.JobTitle(),
			Verified:   true,
		})
	}
	return users
}

// Run creates everything in plan and returns the counts.
func (s *Seeder) Run(ctx context.Context, plan Plan) (Result, error) {
	var res Result
	if err := plan.Validate(); err != nil {
		return res, err
	}
	faker := gofakeit.New(plan.Seed)

	hash, err := auth.HashPassword(plan.Password)
	if err != nil {
		return res, err
	}

	users := GenerateUsers(plan, faker)
	for _, u := range users {
		u.PasswordHash = hash
		if err := s.users.Create(ctx, u); err != nil {
			return res, fmt.Errorf("创建用户 %s 失败: %w", u.Email, err)
		}
		res.Users++
	}
	if len(users) < 2 {
		return res, nil
	}

	for i, u := range users {
		for k := 1; k <= plan.FriendsPerUser && k < len(users); k++ {
			other := users[(i+k*faker.Number(1, len(users)-1))%len(users)]
			if other.ID == u.ID {
				continue
			}
			if err := s.friendships.Create(ctx, models.NewFriendship(u.ID, other.ID)); err != nil {
				return res, fmt.Errorf("创建好友关系失败: %w", err)
			}
			res.Friendships++
		}
	}

	for _, u := range users {
		for p := 0; p < plan.PostsPerUser; p++ {
			image := ""
			if faker.Bool() {
				image = faker.ImageURL(640, 480)
			}
			post, err := s.posts.CreatePost(ctx, u.ID, faker.Sentence(faker.Number(5, 15)), image)
			if err != nil {
				return res, fmt.Errorf("创建动态失败: %w", err)
			}
			res.Posts++

			if err := s.decoratePost(ctx, plan, faker, users, post, &res); err != nil {
				return res, err
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"users":       res.Users,
		"friendships": res.Friendships,
		"posts":       res.Posts,
		"comments":    res.Comments,
		"replies":     res.Replies,
		"likes":       res.Likes,
	}).Info("seeding finished")
	return res, nil
}

func (s *Seeder) decoratePost(ctx context.Context, plan Plan, faker *gofakeit.Faker, users []*models.User, post *models.Post, res *Result) error {
	pick := func() *models.User { return users[faker.Number(0, len(users)-1)] }

	for c := 0; c < plan.CommentsPerPost; c++ {
		author := pick()
		comment, err := s.comments.AddComment(ctx, author.ID, post.ID, faker.Sentence(faker.Number(3, 10)), author.DisplayName())
		if err != nil {
			return fmt.Errorf("创建评论失败: %w", err)
		}
		res.Comments++

		for r := 0; r < plan.RepliesPerComment; r++ {
			replier := pick()
			if _, err := s.comments.AddReply(ctx, replier.ID, comment.ID, faker.Sentence(faker.Number(3, 8)), replier.DisplayName(), author.DisplayName()); err != nil {
				return fmt.Errorf("创建回复失败: %w", err)
			}
			res.Replies++
		}
	}

	liked := map[uint]bool{}
	for l := 0; l < plan.LikesPerPost; l++ {
		liker := pick()
		// 同一用户点两次会取消点赞
		if liked[liker.ID] {
			continue
		}
		liked[liker.ID] = true
		target := services.LikeTarget{Kind: models.LikeTargetPost, ID: post.ID, ActorID: liker.ID}
		if _, err := s.comments.ToggleLike(ctx, target); err != nil {
			return fmt.Errorf("点赞失败: %w", err)
		}
		res.Likes++
	}
	return nil
}
