package cflist_test

import (
	"fmt"

	"github.com/ssargent/sdds/pkg/cflist"
)

func ExampleBuilder() {
	buf := make([]byte, 256)
	b := cflist.NewBuilder(buf)
	b.Start()
	b.AddString(cflist.TokenSerial, "Test")
	b.AddSigned(cflist.TokenSize, -12345)
	b.AddBool(cflist.TokenSupportsPower, true)
	b.End()

	fmt.Println(b.String())
	// Output:
	// <cFList><field type="String" token="B">Test</field><field type="Integer" token="A">-12345</field><field type="Boolean" token="C">True</field></cFList>
}

func ExampleCodec_Signed() {
	c := cflist.NewCodec(nil)
	buf := make([]byte, 256)
	b := c.NewBuilder(buf)
	b.Start()
	b.AddSigned(cflist.TokenSize, -12345)
	b.End()

	v, err := c.Signed(buf, cflist.TokenSize)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(v)
	// Output: -12345
}
