package param

import (
	"context"
	"encoding/json"

	"termpool/core"
	"termpool/pkg/number"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type paramService struct {
	db           core.Transactor
	system       *core.System
	params       core.IParamStore
	messages     core.IMessageStore
	messagez     core.IMessageService
	capabilities core.ICapabilityService
}

// New new param service
func New(db core.Transactor,
	system *core.System,
	paramStr core.IParamStore,
	messageStr core.IMessageStore,
	messagez core.IMessageService,
	capabilityz core.ICapabilityService) core.IParamService {
	return &paramService{
		db:           db,
		system:       system,
		params:       paramStr,
		messages:     messageStr,
		messagez:     messagez,
		capabilities: capabilityz,
	}
}

func (s *paramService) Params(ctx context.Context) (*core.EngineParams, error) {
	return s.params.Find(ctx, s.system.EngineAccount)
}

func (s *paramService) UpdateParam(ctx context.Context, actorID, key, value string) (*core.EngineParams, error) {
	ok, err := s.capabilities.HasCapability(ctx, actorID, core.CapabilityAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrOperationForbidden
	}

	params, err := s.params.Find(ctx, s.system.EngineAccount)
	if err != nil {
		return nil, err
	}

	var oldVal, newVal string
	switch key {
	case core.ParamKeyThreshold:
		v, err := cast.ToInt64E(value)
		if err != nil || v <= 0 {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = cast.ToString(params.Threshold), cast.ToString(v)
		params.Threshold = v

	case core.ParamKeyBaseRate:
		v, err := cast.ToInt64E(value)
		if err != nil || v < 0 {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = cast.ToString(params.BaseRateBps), cast.ToString(v)
		params.BaseRateBps = v

	case core.ParamKeyMinAmount:
		d, err := decimal.NewFromString(value)
		if err != nil || d.Sign() < 0 {
			return nil, core.ErrInvalidParamValue
		}
		d = d.Truncate(number.AmountPrecision)
		if params.MaxAmount.Sign() > 0 && d.GreaterThan(params.MaxAmount) {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = params.MinAmount.String(), d.String()
		params.MinAmount = d

	case core.ParamKeyMaxAmount:
		d, err := decimal.NewFromString(value)
		if err != nil || d.Sign() < 0 {
			return nil, core.ErrInvalidParamValue
		}
		d = d.Truncate(number.AmountPrecision)
		if d.Sign() > 0 && d.LessThan(params.MinAmount) {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = params.MaxAmount.String(), d.String()
		params.MaxAmount = d

	case core.ParamKeyMinTerm:
		v, err := cast.ToInt64E(value)
		if err != nil || v < 1 {
			return nil, core.ErrInvalidParamValue
		}
		if params.MaxTermMonths > 0 && v > params.MaxTermMonths {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = cast.ToString(params.MinTermMonths), cast.ToString(v)
		params.MinTermMonths = v

	case core.ParamKeyMaxTerm:
		v, err := cast.ToInt64E(value)
		if err != nil || v < 0 {
			return nil, core.ErrInvalidParamValue
		}
		if v > 0 && v < params.MinTermMonths {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = cast.ToString(params.MaxTermMonths), cast.ToString(v)
		params.MaxTermMonths = v

	case core.ParamKeyGraceDays:
		v, err := cast.ToInt64E(value)
		if err != nil || v < 0 {
			return nil, core.ErrInvalidParamValue
		}
		oldVal, newVal = cast.ToString(params.GraceDays), cast.ToString(v)
		params.GraceDays = v

	default:
		return nil, core.ErrUnknownParam
	}

	raw, err := json.Marshal(map[string]string{
		"key": key,
		"old": oldVal,
		"new": newVal,
	})
	if err != nil {
		return nil, err
	}

	audit := &core.ParamChange{
		EngineID: s.system.EngineAccount,
		Actor:    actorID,
		Key:      key,
		Content:  types.JSONText(raw),
	}

	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.params.Update(ctx, tx, params); err != nil {
			return err
		}

		if err := s.params.CreateLog(ctx, tx, audit); err != nil {
			return err
		}

		msg, err := s.messagez.Build(actorID, core.ActionParamUpdated, map[string]interface{}{
			"key": key,
			"old": oldVal,
			"new": newVal,
		})
		if err != nil {
			return err
		}

		return s.messages.Create(ctx, tx, []*core.Message{msg})
	})
	if err != nil {
		return nil, err
	}

	return params, nil
}
