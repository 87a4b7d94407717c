package audit

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	productsCommandNameConstant             = "products"
	productsCommandShortDescriptionConstant = "List the security products available for auditing"
	noProductsAvailableMessageConstant      = "No security products are available on this platform."
)

// ProductsCommandBuilder assembles the products cobra command.
type ProductsCommandBuilder struct {
	LoggerProvider  LoggerProvider
	ServiceProvider ServiceProvider
}

// Build constructs the cobra command listing available backends.
func (builder *ProductsCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   productsCommandNameConstant,
		Short: productsCommandShortDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command)
		},
	}

	return command, nil
}

func (builder *ProductsCommandBuilder) run(command *cobra.Command) error {
	logger := resolveLogger(builder.LoggerProvider)
	service := resolveService(builder.ServiceProvider, nil, logger)

	availableProducts := service.AvailableProducts()
	outputWriter := command.OutOrStdout()

	if len(availableProducts) == 0 {
		fmt.Fprintln(outputWriter, noProductsAvailableMessageConstant)
		return nil
	}

	for _, productName := range availableProducts {
		fmt.Fprintln(outputWriter, productName)
	}

	return nil
}
