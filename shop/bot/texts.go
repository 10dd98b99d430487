package bot

const (
	textWelcome        = "Добро пожаловать в Fish-shop!"
	textAskEmail       = "Чтобы добавить товар в корзину, пришлите ваш e-mail"
	textBadEmail       = "Это не похоже на e-mail. Пришлите адрес вида name@example.com"
	textEmailSaved     = "Спасибо! Мы сохранили ваш e-mail: %s"
	textAdded          = "Добавлено в корзину: %d кг"
	textRemoved        = "Товар удалён из корзины"
	textCheckout       = "Спасибо за заказ! Мы свяжемся с вами для оплаты и доставки."
	textProductCaption = "%s\n\n%s\n\nЦена: %s₽ за кг"

	btnCart     = "Корзина"
	btnBack     = "Назад"
	btnToMenu   = "В меню"
	btnCheckout = "Оформить заказ"
	btnRemove   = "Убрать %s"
	btnQuantity = "%d кг"

	// TextFailure is the only error detail users ever see.
	TextFailure = "Что-то пошло не так, попробуйте ещё раз"
)
