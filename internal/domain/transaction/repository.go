package transaction

type Repository interface {
	Save(*Transaction) error
	Update(*Transaction) error
	FindByID(string) (*Transaction, error)
	FindByOrderNSU(string) (*Transaction, error)
	FindAll() ([]*Transaction, error)
}
