package service

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/dto"
	"github.com/apiforge/apiforge/pkg/mapper"
	"github.com/apiforge/apiforge/pkg/model"
	"github.com/apiforge/apiforge/pkg/reqctx"
)

// session resolves the gorm handle for the active unit of work. Service
// methods only call it inside uow.Execute, where a transaction is always
// present.
func (s *UserService) session(ctx context.Context) *gorm.DB {
	tx, _ := reqctx.Transaction(ctx)
	return tx.GetDB().WithContext(ctx)
}

func userID(u *model.User) string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

var userMapper = mapper.Func[*model.User, dto.UserResponse](func(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		URN:   u.URN,
		Email: u.Email,
		Name:  u.Name,
	}
})

func presentUser(u *model.User) dto.UserResponse {
	return userMapper.Map(u)
}

var productMapper = mapper.Func[*model.Product, dto.ProductResponse](func(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		URN:         p.URN,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
	}
})
