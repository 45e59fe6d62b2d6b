package shared

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"github.com/vulcanize/go-codec-typedwitness/typestr"
)

// Reference values of the EIP-712 "Ether Mail" example
var (
	MailDomainSeparator = common.HexToHash("0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f")
	MailTypeHash        = common.HexToHash("0xa0cedeb2dc280ba39b857546d74f5549c3a1d7bdc2dd96bf881f76108e23dac2")
	MailMessageHash     = common.HexToHash("0xc52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e")
	MailSigningHash     = common.HexToHash("0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2")
)

// MailTypes returns the registry of the EIP-712 example
func MailTypes() typestr.Registry {
	return typestr.Registry{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		"Person": {
			{Name: "name", Type: "string"},
			{Name: "wallet", Type: "address"},
		},
		"Mail": {
			{Name: "from", Type: "Person"},
			{Name: "to", Type: "Person"},
			{Name: "contents", Type: "string"},
		},
	}
}

// MailDomain returns the domain of the EIP-712 example
func MailDomain() datamodel.Node {
	n, err := qp.BuildMap(basicnode.Prototype.Any, 4, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "name", qp.String("Ether Mail"))
		qp.MapEntry(ma, "version", qp.String("1"))
		qp.MapEntry(ma, "chainId", qp.String("1"))
		qp.MapEntry(ma, "verifyingContract", qp.Bytes(common.HexToAddress("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC").Bytes()))
	})
	if err != nil {
		panic(err)
	}
	return n
}

// PersonNode builds a Person value
func PersonNode(name string, wallet common.Address) datamodel.Node {
	n, err := qp.BuildMap(basicnode.Prototype.Any, 2, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "name", qp.String(name))
		qp.MapEntry(ma, "wallet", qp.Bytes(wallet.Bytes()))
	})
	if err != nil {
		panic(err)
	}
	return n
}

// MailMessage returns the message of the EIP-712 example
func MailMessage() datamodel.Node {
	n, err := qp.BuildMap(basicnode.Prototype.Any, 3, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, "from", qp.Node(PersonNode("Cow", common.HexToAddress("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"))))
		qp.MapEntry(ma, "to", qp.Node(PersonNode("Bob", common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"))))
		qp.MapEntry(ma, "contents", qp.String("Hello, Bob!"))
	})
	if err != nil {
		panic(err)
	}
	return n
}
