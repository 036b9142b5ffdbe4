package service

import (
	"strings"
	"time"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"
)

// DealerService 经销商档案与团队读模型服务
type DealerService struct {
	dealerRepo   repository.DealerRepository
	turnoverRepo repository.TurnoverRepository
}

// NewDealerService 创建经销商服务
func NewDealerService(dealerRepo repository.DealerRepository, turnoverRepo repository.TurnoverRepository) *DealerService {
	return &DealerService{
		dealerRepo:   dealerRepo,
		turnoverRepo: turnoverRepo,
	}
}

// DealerCreateInput 创建经销商参数
type DealerCreateInput struct {
	ParentID *uint  `json:"parent_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Create 创建经销商（上级必须存在且激活）
func (s *DealerService) Create(input DealerCreateInput) (*models.Dealer, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, ErrNotFound
	}
	if input.ParentID != nil {
		parent, err := s.dealerRepo.GetByID(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrNotFound
		}
		if parent.Status != constants.DealerStatusActive {
			return nil, ErrDealerDisabled
		}
	}
	now := time.Now()
	dealer := &models.Dealer{
		ParentID:  input.ParentID,
		Name:      name,
		Email:     email,
		Status:    constants.DealerStatusActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.dealerRepo.Create(dealer); err != nil {
		return nil, err
	}
	return dealer, nil
}

// GetByID 查询经销商
func (s *DealerService) GetByID(id uint) (*models.Dealer, error) {
	dealer, err := s.dealerRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, ErrNotFound
	}
	return dealer, nil
}

// List 分页查询经销商
func (s *DealerService) List(filter repository.DealerListFilter) ([]models.Dealer, int64, error) {
	return s.dealerRepo.List(filter)
}

// SetStatus 启用/停用经销商
func (s *DealerService) SetStatus(id uint, status string) (*models.Dealer, error) {
	if status != constants.DealerStatusActive && status != constants.DealerStatusDisabled {
		return nil, ErrNotFound
	}
	dealer, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	dealer.Status = status
	dealer.UpdatedAt = time.Now()
	if err := s.dealerRepo.Update(dealer); err != nil {
		return nil, err
	}
	return dealer, nil
}

// TeamMember 团队成员读模型
type TeamMember struct {
	Dealer        models.Dealer `json:"dealer"`
	Level         int           `json:"level"`
	DirectCount   int           `json:"direct_count"`
	TeamTurnover  models.Money  `json:"team_turnover"`
	TotalTurnover models.Money  `json:"total_turnover"`
}

// TeamView 团队读模型
type TeamView struct {
	DealerID    uint         `json:"dealer_id"`
	DirectCount int          `json:"direct_count"`
	TeamSize    int          `json:"team_size"`
	Members     []TeamMember `json:"members"`
}

// Team 经销商团队视图：直接下级与全部传递下级，附当月业绩
func (s *DealerService) Team(dealerID uint, month string) (*TeamView, error) {
	if dealerID == 0 {
		return nil, ErrNotFound
	}
	dealers, err := s.dealerRepo.ListAll()
	if err != nil {
		return nil, err
	}
	tree, err := BuildSponsorTree(dealers)
	if err != nil {
		return nil, err
	}
	if !tree.Contains(dealerID) {
		return nil, ErrNotFound
	}

	records, err := s.turnoverRepo.ListByMonth(month)
	if err != nil {
		return nil, err
	}
	turnoverByDealer := make(map[uint]models.TurnoverRecord, len(records))
	for _, record := range records {
		turnoverByDealer[record.DealerID] = record
	}

	levelOf := make(map[uint]int)
	levelOf[dealerID] = 0
	view := &TeamView{DealerID: dealerID, Members: make([]TeamMember, 0)}
	queue := tree.ChildrenOf(dealerID)
	for _, child := range queue {
		levelOf[child] = 1
	}
	view.DirectCount = len(queue)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		dealer, _ := tree.Dealer(current)
		record := turnoverByDealer[current]
		view.Members = append(view.Members, TeamMember{
			Dealer:        dealer,
			Level:         levelOf[current],
			DirectCount:   len(tree.ChildrenOf(current)),
			TeamTurnover:  record.TeamTurnover,
			TotalTurnover: record.TotalTurnover,
		})
		for _, child := range tree.ChildrenOf(current) {
			levelOf[child] = levelOf[current] + 1
			queue = append(queue, child)
		}
	}
	view.TeamSize = len(view.Members)
	return view, nil
}
