package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/example/goshop/internal/config"
)

// 结算步骤，只能按顺序前进/后退，不允许跳步。
const (
	StepBilling  = "billing"
	StepShipping = "shipping"
	StepPayment  = "payment"
)

// 运费（分），按配送方式
var shippingFees = map[string]int64{
	"standard":  0,
	"express":   999,
	"overnight": 2499,
}

var (
	cardPattern   = regexp.MustCompile(`^[0-9]{13,19}$`)
	cvvPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// BillingInfo 账单信息
type BillingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// ShippingInfo 配送信息
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Method  string `json:"method"` // standard / express / overnight
}

// PaymentInfo 支付信息，只做本地格式校验，不真正请求支付渠道。
type PaymentInfo struct {
	CardNumber string `json:"card_number"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiry"` // MM/YY
}

// StepInput 当前步骤的表单内容，只需要填当前步骤对应的部分。
type StepInput struct {
	Billing  *BillingInfo  `json:"billing,omitempty"`
	Shipping *ShippingInfo `json:"shipping,omitempty"`
	Payment  *PaymentInfo  `json:"payment,omitempty"`
}

// CheckoutState 会话快照，返回给客户端
type CheckoutState struct {
	Step     string        `json:"step"`
	Ready    bool          `json:"ready"` // 三步全部通过校验，可以提交
	Billing  *BillingInfo  `json:"billing,omitempty"`
	Shipping *ShippingInfo `json:"shipping,omitempty"`
	Quote    *Quote        `json:"quote,omitempty"`
}

// Quote 金额明细（分）。运费和税是结算时的展示口径，
// 订单落库的 total 仍是商品小计。
type Quote struct {
	Subtotal   int64 `json:"subtotal"`
	Shipping   int64 `json:"shipping"`
	Tax        int64 `json:"tax"`
	GrandTotal int64 `json:"grand_total"`
}

// Confirmation 提交成功后的确认信息
type Confirmation struct {
	Order *OrderDetail `json:"order"`
	Quote *Quote       `json:"quote"`
}

type checkoutSession struct {
	step     string
	billing  *BillingInfo
	shipping *ShippingInfo
	payment  *PaymentInfo
	ready    bool
}

// CheckoutService 服务端保存的三步结算会话：billing -> shipping -> payment。
// 每一步都有本地字段校验，Next 校验通过才前进，Back 无条件后退。
type CheckoutService struct {
	mu       sync.Mutex
	sessions map[int64]*checkoutSession

	cartSvc  *CartService
	orderSvc *OrderService
	cfg      *config.CheckoutConfig
}

func NewCheckoutService(cartSvc *CartService, orderSvc *OrderService, cfg *config.CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		sessions: make(map[int64]*checkoutSession),
		cartSvc:  cartSvc,
		orderSvc: orderSvc,
		cfg:      cfg,
	}
}

func validateBilling(b *BillingInfo) error {
	if b == nil {
		return fmt.Errorf("%w: billing info is required", ErrValidation)
	}
	if b.Name == "" || b.Address == "" || b.City == "" || b.Zip == "" {
		return fmt.Errorf("%w: all billing fields are required", ErrValidation)
	}
	if !emailPattern.MatchString(b.Email) {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

func validateShipping(sh *ShippingInfo) error {
	if sh == nil {
		return fmt.Errorf("%w: shipping info is required", ErrValidation)
	}
	if sh.Address == "" || sh.City == "" || sh.Zip == "" {
		return fmt.Errorf("%w: all shipping fields are required", ErrValidation)
	}
	if _, ok := shippingFees[sh.Method]; !ok {
		return fmt.Errorf("%w: unknown shipping method %q", ErrValidation, sh.Method)
	}
	return nil
}

func validatePayment(p *PaymentInfo) error {
	if p == nil {
		return fmt.Errorf("%w: payment info is required", ErrValidation)
	}
	if !cardPattern.MatchString(p.CardNumber) {
		return fmt.Errorf("%w: card number must be 13-19 digits", ErrValidation)
	}
	if !cvvPattern.MatchString(p.CVV) {
		return fmt.Errorf("%w: cvv must be 3-4 digits", ErrValidation)
	}
	if !expiryPattern.MatchString(p.Expiry) {
		return fmt.Errorf("%w: expiry must be MM/YY", ErrValidation)
	}
	return nil
}

// Start 开始结算，要求购物车非空。已有会话会被重置。
func (s *CheckoutService) Start(ctx context.Context, userID int64) (*CheckoutState, error) {
	view, err := s.cartSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	s.mu.Lock()
	s.sessions[userID] = &checkoutSession{step: StepBilling}
	s.mu.Unlock()

	return s.State(ctx, userID)
}

func (s *CheckoutService) session(userID int64) (*checkoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, fmt.Errorf("%w: no active checkout session", ErrNotFound)
	}
	return sess, nil
}

// State 返回当前会话快照，含金额明细（配送方式已定时）。
// 字段读取在锁内完成，报价查询在锁外。
func (s *CheckoutService) State(ctx context.Context, userID int64) (*CheckoutState, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no active checkout session", ErrNotFound)
	}
	st := &CheckoutState{
		Step:     sess.step,
		Ready:    sess.ready,
		Billing:  sess.billing,
		Shipping: sess.shipping,
	}
	s.mu.Unlock()

	if st.Shipping != nil {
		q, err := s.quote(ctx, userID, st.Shipping.Method)
		if err != nil {
			return nil, err
		}
		st.Quote = q
	}
	return st, nil
}

func (s *CheckoutService) quote(ctx context.Context, userID int64, method string) (*Quote, error) {
	view, err := s.cartSvc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	fee := shippingFees[method]
	rate := int64(10)
	if s.cfg != nil && s.cfg.TaxRatePercent > 0 {
		rate = s.cfg.TaxRatePercent
	}
	// 税基为 小计+运费，四舍五入到分
	tax := (view.Subtotal + fee) * rate
	tax = (tax + 50) / 100
	return &Quote{
		Subtotal:   view.Subtotal,
		Shipping:   fee,
		Tax:        tax,
		GrandTotal: view.Subtotal + fee + tax,
	}, nil
}

// Next 校验当前步骤的表单并前进。payment 步骤校验通过后停留在原地，
// 标记 ready，等待 Submit。
func (s *CheckoutService) Next(ctx context.Context, userID int64, in *StepInput) (*CheckoutState, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = &StepInput{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch sess.step {
	case StepBilling:
		if err := validateBilling(in.Billing); err != nil {
			return nil, err
		}
		sess.billing = in.Billing
		sess.step = StepShipping
	case StepShipping:
		if err := validateShipping(in.Shipping); err != nil {
			return nil, err
		}
		sess.shipping = in.Shipping
		sess.step = StepPayment
	case StepPayment:
		if err := validatePayment(in.Payment); err != nil {
			return nil, err
		}
		sess.payment = in.Payment
		sess.ready = true
	}
	return s.stateLocked(ctx, userID, sess)
}

// Back 无条件后退一步，已填写的内容保留。
func (s *CheckoutService) Back(ctx context.Context, userID int64) (*CheckoutState, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch sess.step {
	case StepShipping:
		sess.step = StepBilling
	case StepPayment:
		sess.step = StepShipping
		sess.ready = false
	}
	return s.stateLocked(ctx, userID, sess)
}

// stateLocked 调用方已持有 s.mu
func (s *CheckoutService) stateLocked(ctx context.Context, userID int64, sess *checkoutSession) (*CheckoutState, error) {
	st := &CheckoutState{
		Step:     sess.step,
		Ready:    sess.ready,
		Billing:  sess.billing,
		Shipping: sess.shipping,
	}
	if sess.shipping != nil {
		q, err := s.quote(ctx, userID, sess.shipping.Method)
		if err != nil {
			return nil, err
		}
		st.Quote = q
	}
	return st, nil
}

// Submit 终结动作：要求三步全部通过校验，把购物车内容交给订单服务下单，
// 成功后清空购物车并结束会话；失败时会话与购物车保持原样，可直接重试。
func (s *CheckoutService) Submit(ctx context.Context, userID int64) (*Confirmation, error) {
	// ready 与配送方式在锁内取出，避免与并发的 Next/Back 互踩
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		GetMonitor().RecordCheckoutSubmit(false)
		return nil, fmt.Errorf("%w: no active checkout session", ErrNotFound)
	}
	ready := sess.ready
	var method string
	if sess.shipping != nil {
		method = sess.shipping.Method
	}
	s.mu.Unlock()

	if !ready {
		GetMonitor().RecordCheckoutSubmit(false)
		return nil, fmt.Errorf("%w: checkout steps are not complete", ErrValidation)
	}

	view, err := s.cartSvc.Get(ctx, userID)
	if err != nil {
		GetMonitor().RecordCheckoutSubmit(false)
		return nil, err
	}
	if len(view.Items) == 0 {
		GetMonitor().RecordCheckoutSubmit(false)
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	q, err := s.quote(ctx, userID, method)
	if err != nil {
		GetMonitor().RecordCheckoutSubmit(false)
		return nil, err
	}

	in := &PlaceOrderInput{UserID: userID}
	for _, line := range view.Items {
		in.Items = append(in.Items, PlaceOrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	detail, err := s.orderSvc.PlaceOrder(ctx, in)
	if err != nil {
		GetMonitor().RecordCheckoutSubmit(false)
		return nil, err
	}

	// 下单成功后清车、销毁会话。清车失败不回滚订单，只记监控。
	if err := s.cartSvc.Clear(ctx, userID); err != nil {
		GetMonitor().RecordRedisError()
	}
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	GetMonitor().RecordCheckoutSubmit(true)
	return &Confirmation{Order: detail, Quote: q}, nil
}
